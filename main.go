package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/phillip-england/attendance/internal/attendancecli"
)

func main() {
	if err := attendancecli.Execute(os.Args[1:]); err != nil {
		if errors.Is(err, attendancecli.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			attendancecli.PrintUsage(os.Stderr)
			os.Exit(2)
		}
		log.Fatal(err)
	}
}
