package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/spotlight/userprofile/internal/auth"
)

type output struct {
	Key       string `json:"key"`
	KeyPrefix string `json:"key_prefix"`
	Env       string `json:"env"`
	Entry     string `json:"api_keys_entry"`
}

func main() {
	var (
		env    = flag.String("env", auth.EnvLive, "Key environment: live or test")
		format = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *env != auth.EnvLive && *env != auth.EnvTest {
		fmt.Fprintf(os.Stderr, "invalid env %q; use %s or %s\n", *env, auth.EnvLive, auth.EnvTest)
		os.Exit(1)
	}

	generated, err := auth.GenerateAPIKey(*env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "generate api key:", err)
		os.Exit(1)
	}

	out := output{
		Key:       generated.Plaintext,
		KeyPrefix: generated.Prefix,
		Env:       *env,
		Entry:     generated.Entry(),
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println("key:", out.Key)
		fmt.Println("API_KEYS entry (append with ';'):", out.Entry)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}
