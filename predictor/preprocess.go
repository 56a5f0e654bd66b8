package predictor

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/twishhq/twish/collector"
	"gonum.org/v1/gonum/mat"
)

// Tweets left with this many tokens or fewer after cleaning are discarded
// entirely, short leftovers carry no signal for the model.
const shortLineTokens = 3

var (
	// Top-level domains appearing as bare links in tweet text.
	domainRegex = regexp.MustCompile(`\S+(\.)(com|net|ly|co|us|ec|gob)(\S?)+`)
	// Protocol and well known link prefixes, plus hashtags and mentions.
	linkRegex = regexp.MustCompile(`(http|facebook|twitter|bit|soundcloud|www|pic|#|@)\S+`)

	accentReplacer = strings.NewReplacer(
		"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u",
	)
)

// PreprocessResult carries the surviving tweets in the original order:
// identifiers, publishing times and the feature matrix rows line up by index.
type PreprocessResult struct {
	Ids      []string
	PostedAt []time.Time
	Features *mat.Dense
}

// Preprocessor converts raw tweet text into feature vectors through a fixed,
// deterministic cleaning pipeline followed by the trained TF-IDF vectorizer.
type Preprocessor struct {
	vectorizer *TfidfVectorizer
}

func NewPreprocessor(vectorizer *TfidfVectorizer) *Preprocessor {
	return &Preprocessor{vectorizer: vectorizer}
}

// Clean runs the per-tweet pipeline: lowercase, strip links/hashtags/mentions,
// strip accents, tokenize, strip punctuation per token, drop non-alphabetic
// tokens, then drop the whole tweet when too few tokens survive. The second
// return value is false when the tweet is discarded.
func Clean(text string) (string, bool) {
	text = strings.ToLower(text)
	text = domainRegex.ReplaceAllString(text, "")
	text = linkRegex.ReplaceAllString(text, "")
	text = accentReplacer.Replace(text)

	tokens := []string{}
	for _, token := range strings.Fields(text) {
		token = stripPunctuation(token)
		if token == "" || !isAlphabetic(token) {
			continue
		}
		tokens = append(tokens, token)
	}

	if len(tokens) <= shortLineTokens {
		return "", false
	}
	return strings.Join(tokens, " "), true
}

// Preprocess cleans and vectorizes a batch. When no tweet survives the length
// filter it returns ok=false instead of an empty matrix, callers must check
// before indexing.
func (p *Preprocessor) Preprocess(tweets []collector.RawTweet) (*PreprocessResult, bool) {
	res := &PreprocessResult{}
	cleaned := []string{}

	for _, tweet := range tweets {
		text, ok := Clean(tweet.FullText)
		if !ok {
			continue
		}
		res.Ids = append(res.Ids, tweet.Id)
		res.PostedAt = append(res.PostedAt, tweet.PostedAt)
		cleaned = append(cleaned, text)
	}

	if len(cleaned) == 0 {
		return nil, false
	}

	res.Features = p.vectorizer.Transform(cleaned)
	return res, true
}

func stripPunctuation(token string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, token)
}

func isAlphabetic(token string) bool {
	for _, r := range token {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
