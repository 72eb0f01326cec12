// Command inspect prints the badger entries of a stopped or running hub.
package main

import (
	"chat-hub/internal"
	"chat-hub/repositories"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

func main() {
	_ = godotenv.Load()
	var config internal.Config
	_, _ = env.UnmarshalFromEnviron(&config)

	dbPath := flag.String("db", config.BadgerFilepath, "Path to badger DB")
	prefix := flag.String("prefix", "", "Key prefix to scan (user:, chat:, msg:, ...)")
	flag.Parse()
	if *dbPath == "" {
		log.Fatal("No database path, set -db or BADGER_FILEPATH")
	}

	// BypassLockGuard lets the dump run next to a live hub
	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	rows, err := repositories.Inspect(db, *prefix)
	if err != nil {
		log.Fatal(err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Detail"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, row := range rows {
		table.Append([]string{row.Key, row.Type, row.Detail})
	}
	table.Render()
	fmt.Printf("\n%d entries\n", len(rows))
}
