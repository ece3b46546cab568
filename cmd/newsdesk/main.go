package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/pevans/newsdesk/config"
)

// Options are the flags shared by every command.
type Options struct {
	ConfigPath string `long:"config" env:"NEWSDESK_CONFIG" description:"Config file (default ~/.newsdesk/config.yaml)"`
	LogLevel   string `long:"log-level" env:"NEWSDESK_LOG_LEVEL" description:"Log level: debug, info, warn, error"`
	Store      string `long:"store" env:"NEWSDESK_STORE" choice:"sqlite" choice:"firestore" description:"Live document store (default firestore)"`
	DSN        string `long:"dsn" env:"NEWSDESK_DSN" default:"newsdesk.db" description:"SQLite database path"`
	KeyFile    string `long:"key-file" env:"NEWSDESK_KEY_FILE" default:"serviceAccountKey.json" description:"Service account key, read when FIREBASE_CREDENTIALS is unset"`
	ProjectID  string `long:"project-id" env:"NEWSDESK_PROJECT_ID" description:"Override the project id of the credentials"`
	DataDir    string `long:"data-dir" env:"NEWSDESK_DATA_DIR" default:"." description:"Directory of the raw, cleaned and archive files"`
	RedisAddr  string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for the shared table cache"`
}

var (
	opts   Options
	parser = flags.NewParser(&opts, flags.Default)
)

func init() {
	parser.ShortDescription = "ETtoday news harvester"
	parser.LongDescription = "newsdesk harvests the ETtoday daily listing, extracts bylines and keywords, " +
		"upserts articles into the live document store and merges it with the CSV archive."

	addCommand("crawl", "Harvest days into the raw file", &crawlCommand{})
	addCommand("clean", "Deduplicate and enrich the raw file", &cleanCommand{})
	addCommand("upload", "Upsert the cleaned dataset", &uploadCommand{})
	addCommand("run", "Crawl, enrich and upsert without intermediate files", &runCommand{})
	addCommand("sync", "Advance the archive watermark from the live store", &syncCommand{})
	addCommand("count", "Count documents in the live store", &countCommand{})
	addCommand("serve", "Serve the read API and run scheduled jobs", &serveCommand{})
}

func addCommand(name, short string, data any) {
	if _, err := parser.AddCommand(name, short, short, data); err != nil {
		panic(fmt.Sprintf("failed to register command %s: %v", name, err))
	}
}

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	// flags.Default prints parse and command errors itself.
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}
}
