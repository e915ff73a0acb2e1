// cmd/puzzle-preview prints the generated puzzle for a date as JSON.
// Useful for checking that two builds agree on a date's puzzle.
//
// Usage: puzzle-preview [-store path] [YYYY-MM-DD] [difficulty-adjustment]
//
// With -store, the puzzle is read through the local cache and only
// generated on a miss or a slow read, mirroring the client's daily load.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"time"

	"logiclooper/localstore"
	"logiclooper/puzzle"
)

const cacheReadTimeout = 2 * time.Second

func main() {
	storePath := flag.String("store", "", "local store path to use as a puzzle cache")
	flag.Parse()
	args := flag.Args()

	date := time.Now().UTC().Format("2006-01-02")
	if len(args) > 0 {
		date = args[0]
	}
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		log.Fatalf("invalid date %q: %v", date, err)
	}

	adjustment := 0
	if len(args) > 1 {
		adjustment, err = strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("invalid adjustment %q: %v", args[1], err)
		}
	}

	var p puzzle.Puzzle
	if *storePath != "" {
		store, err := localstore.Open(*storePath)
		if err != nil {
			log.Fatalf("open store: %v", err)
		}
		defer store.Close()

		err = store.PuzzleOrGenerate(date, cacheReadTimeout, func(string) any {
			return puzzle.Generate(parsed, puzzle.Options{DifficultyAdjustment: adjustment})
		}, &p)
		if err != nil {
			log.Fatalf("load puzzle: %v", err)
		}
	} else {
		p = *puzzle.Generate(parsed, puzzle.Options{DifficultyAdjustment: adjustment})
	}

	out, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		log.Fatalf("marshal: %v", err)
	}
	fmt.Println(string(out))
}
