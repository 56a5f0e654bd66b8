package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/twishhq/twish/appstate"
	"github.com/twishhq/twish/collector"
	"github.com/twishhq/twish/notifier"
	"github.com/twishhq/twish/pipeline"
	"github.com/twishhq/twish/predictor"
	"github.com/twishhq/twish/server"
	"github.com/twishhq/twish/utils"
	"github.com/twishhq/twish/utils/dotenv"
	flags "github.com/twishhq/twish/utils/flag"
	Logger "github.com/twishhq/twish/utils/log"
)

const (
	defaultServerAddr   = ":8080"
	defaultSnapshotPath = "app_config.json"
	defaultModelDir     = "models"
)

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newCollector picks the tweet source. With a bearer token present the
// official search API is used, otherwise the scraper, which needs no
// credentials but is subject to scraping limits.
func newCollector() collector.Collector {
	if token := os.Getenv("TWITTER_BEARER_TOKEN"); token != "" {
		Logger.Log.Info("collecting through the official search API")
		return collector.NewOfficialAPICollector(
			collector.NewTwitterClient(http.DefaultClient, token))
	}
	Logger.Log.Info("no TWITTER_BEARER_TOKEN set, collecting through the scraper")
	return collector.NewScraperCollector()
}

// newNotifier assembles the notification fan-out from what is configured in
// the environment. With nothing configured searches still complete, they just
// notify nobody.
func newNotifier() notifier.Notifier {
	notifiers := []notifier.Notifier{}

	if os.Getenv("SES_SENDER") != "" {
		email, err := notifier.NewEmailNotifier()
		if err != nil {
			Logger.Log.Fatalf("fail to initialize the email notifier: %v", err)
		}
		notifiers = append(notifiers, email)
	}
	if url := os.Getenv("SLACK_WEBHOOK_URL"); url != "" {
		notifiers = append(notifiers, notifier.NewSlackNotifier(url))
	}

	return notifier.NewComposite(notifiers...)
}

func main() {
	flags.Parse()
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}

	db, err := utils.GetDBConnection()
	if err != nil {
		Logger.Log.Fatalf("fail to connect to the database: %v", err)
	}
	utils.DatabaseSetupAndMigration(db)

	redis := utils.GetRedisClient()
	if err := redis.Ping(); err != nil {
		Logger.Log.Warnf("redis is unreachable, snapshot mirroring disabled: %v", err)
		redis = nil
	}

	predictors := predictor.NewCache(db, envOrDefault("MODEL_DIR", defaultModelDir))
	state := appstate.NewContext(db, redis, predictors,
		envOrDefault("APP_CONFIG_PATH", defaultSnapshotPath))
	if err := state.Reload(); err != nil {
		Logger.Log.Fatalf("fail to load application settings: %v", err)
	}

	eventbus := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            100,
			BlockPublishUntilSubscriberAck: false,
		},
		watermill.NewStdLogger(false, false),
	)
	ctx, cancel := context.WithCancel(context.Background())

	// Initialize all engine modules here.
	modules := []pipeline.Module{
		// Collector gathers tweets for submitted searches.
		pipeline.NewCollectorModule(
			pipeline.CollectorModuleConfig{Name: "collector"}, db, eventbus, newCollector()),
		// Classifier runs the predictor over collected batches and persists the
		// outcome.
		pipeline.NewClassifierModule(
			pipeline.ClassifierModuleConfig{Name: "classifier"}, db, eventbus, predictors),
		// Notifier fans out to subscribed searchers once a search is done.
		pipeline.NewNotifierModule(
			pipeline.NotifierModuleConfig{Name: "notifier"}, db, eventbus, state, newNotifier()),
	}
	engine := pipeline.NewEngine(modules, ctx, cancel, eventbus)
	go engine.Run()

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(cors.Default())
	server.NewAPIServer(state, eventbus).RegisterEndpoints(router)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		engine.Shutdown()
		os.Exit(0)
	}()

	Logger.Log.Info("api server starts up")
	router.Run(envOrDefault("SERVER_ADDR", defaultServerAddr))
}
