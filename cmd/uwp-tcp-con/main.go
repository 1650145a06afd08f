// Command uwp-tcp-con is the interactive terminal client for manually
// querying a Java or Bedrock server during development. Invoked as
// `uwp-tcp-con --healthcheck <url>` it instead performs a one-shot HTTP
// health check against a running mcstatusd and exits non-zero on
// failure, the role mcping-healthcheck plays for the original service.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dring/mcstatus/internal/cli"
)

func main() {
	if len(os.Args) == 3 && os.Args[1] == "--healthcheck" {
		if err := healthcheck(os.Args[2]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("Health check succeeded")
		return
	}

	app := cli.NewApp()
	if err := app.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func healthcheck(url string) error {
	client := http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("health check request to %s returned status %d", url, resp.StatusCode)
	}
	return nil
}
