package main

import (
	"os"

	"github.com/google/uuid"
	"github.com/twishhq/twish/appstate"
	"github.com/twishhq/twish/model"
	"github.com/twishhq/twish/predictor"
	"github.com/twishhq/twish/utils"
	"github.com/twishhq/twish/utils/dotenv"
	flags "github.com/twishhq/twish/utils/flag"
	Logger "github.com/twishhq/twish/utils/log"
	"gorm.io/gorm"
)

const (
	defaultSnapshotPath = "app_config.json"
	defaultModelDir     = "models"
)

// seedPredictor creates the example LogisticRegression predictor with its
// three labels. A no-op when any predictor already exists.
func seedPredictor(db *gorm.DB) (*model.Predictor, error) {
	var existing []model.Predictor
	if err := db.Limit(1).Find(&existing).Error; err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		Logger.Log.Info("predictor table already seeded")
		return &existing[0], nil
	}

	record := &model.Predictor{
		Id:          uuid.New().String(),
		Name:        "LogisticRegression",
		Version:     "v1.0",
		Description: "Example predictor LogisticRegression.",
	}
	if err := db.Create(record).Error; err != nil {
		return nil, err
	}

	labels := []string{"Label 0", "Label 1", "Label 2"}
	for i, label := range labels {
		if err := db.Create(&model.PredictionLabel{
			Id:           uuid.New().String(),
			Label:        label,
			IntegerLabel: i,
			Description:  "This is an example label",
			PredictorID:  record.Id,
		}).Error; err != nil {
			return nil, err
		}
	}
	Logger.Log.Info("predictor table seeded")
	return record, nil
}

// seedApp creates the App row referencing the seeded predictor. A no-op when
// an App row already exists.
func seedApp(db *gorm.DB, record *model.Predictor) error {
	var existing []model.App
	if err := db.Limit(1).Find(&existing).Error; err != nil {
		return err
	}
	if len(existing) > 0 {
		Logger.Log.Info("app table already seeded")
		return nil
	}

	if err := db.Create(&model.App{
		Id:                              uuid.New().String(),
		Name:                            "Example App",
		Description:                     "This is a Twish example app",
		About:                           "This is a Twish example app, seeded so the application works out of the box.",
		EnableEmailNotification:         true,
		AllowUserToChoosePredictor:      false,
		AllowUserToChooseNumberOfTweets: true,
		DefaultPredictorID:              &record.Id,
	}).Error; err != nil {
		return err
	}
	Logger.Log.Info("app table seeded")
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
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

	record, err := seedPredictor(db)
	if err != nil {
		Logger.Log.Fatalf("fail to seed predictors: %v", err)
	}
	if err := seedApp(db, record); err != nil {
		Logger.Log.Fatalf("fail to seed the app: %v", err)
	}

	// Refresh the settings snapshot so a running server picks the seed up on
	// its next reload.
	predictors := predictor.NewCache(db, envOrDefault("MODEL_DIR", defaultModelDir))
	state := appstate.NewContext(db, nil, predictors,
		envOrDefault("APP_CONFIG_PATH", defaultSnapshotPath))
	if err := state.Reload(); err != nil {
		Logger.Log.Fatalf("fail to write the settings snapshot: %v", err)
	}

	Logger.Log.Info("database seeded")
}
