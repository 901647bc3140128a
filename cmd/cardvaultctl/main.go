// cardvaultctl offers offline helpers for operators: computing the derived
// key for a password and the commitment for an invite key, without talking
// to a running server. Useful when auditing stored records by hand.
package main

import (
	"encoding/base64"
	"flag"
	"fmt"
	"os"

	"github.com/ZackMurry/cardtown-sub000/internal/digest"
)

func main() {
	deriveCmd := flag.NewFlagSet("derive", flag.ExitOnError)
	derivePassword := deriveCmd.String("password", "", "password to derive a key from")

	commitCmd := flag.NewFlagSet("commit", flag.ExitOnError)
	commitKey := commitCmd.String("key", "", "base64 team key to compute the commitment of")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "derive":
		_ = deriveCmd.Parse(os.Args[2:])
		if *derivePassword == "" {
			fmt.Fprintln(os.Stderr, "derive: -password required")
			os.Exit(2)
		}
		fmt.Println(base64.StdEncoding.EncodeToString(digest.SumString(*derivePassword)))
	case "commit":
		_ = commitCmd.Parse(os.Args[2:])
		raw, err := base64.StdEncoding.DecodeString(*commitKey)
		if err != nil {
			fmt.Fprintf(os.Stderr, "commit: key is not base64: %v\n", err)
			os.Exit(2)
		}
		fmt.Println(digest.SumBase64(raw))
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  cardvaultctl derive -password <password>   print base64 derived key
  cardvaultctl commit -key <base64 key>      print base64 key commitment`)
}
