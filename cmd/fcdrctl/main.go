// Command fcdrctl is a small client for fcdrd. It prints daemon status, the
// effect catalogue table, or a correlation-matrix summary.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	flag "github.com/spf13/pflag"
)

func main() {
	addr := flag.String("addr", "http://127.0.0.1:8159", "fcdrd base URL")
	kind := flag.String("kind", "cross_line", "correlation matrix kind (cross_line or cross_element)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	client := &http.Client{Timeout: 30 * time.Second}

	var err error
	switch args[0] {
	case "status":
		err = printStatus(client, *addr)
	case "effects":
		err = printEffects(client, *addr)
	case "correlation":
		if len(args) < 2 {
			err = fmt.Errorf("correlation needs an effect name")
			break
		}
		err = printCorrelation(client, *addr, args[1], *kind)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "fcdrctl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: fcdrctl [--addr URL] status|effects|correlation <effect> [--kind KIND]")
}

func getJSON(client *http.Client, rawURL string, out any) error {
	resp, err := client.Get(rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, e.Error)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func printStatus(client *http.Client, addr string) error {
	var status struct {
		Status  string `json:"status"`
		Effects int    `json:"effects"`
	}
	if err := getJSON(client, addr+"/healthz", &status); err != nil {
		return err
	}
	fmt.Printf("status: %s, %d effects registered\n", status.Status, status.Effects)
	return nil
}

func printEffects(client *http.Client, addr string) error {
	var effects []struct {
		Name           string `json:"name"`
		Parameter      string `json:"parameter"`
		Units          string `json:"units"`
		Classification string `json:"classification"`
		RModel         string `json:"rmodel"`
		Description    string `json:"description"`
	}
	if err := getJSON(client, addr+"/effects", &effects); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPARAMETER\tCLASS\tRMODEL\tUNITS\tDESCRIPTION")
	for _, e := range effects {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Name, e.Parameter, e.Classification, e.RModel, e.Units, e.Description)
	}
	return w.Flush()
}

func printCorrelation(client *http.Client, addr, effect, kind string) error {
	q := url.Values{}
	q.Set("effect", effect)
	q.Set("kind", kind)

	var result struct {
		Effect     string      `json:"effect"`
		Kind       string      `json:"kind"`
		Dims       []string    `json:"dims"`
		Shape      []int       `json:"shape"`
		FirstBlock [][]float64 `json:"first_block"`
	}
	if err := getJSON(client, addr+"/effects/correlation?"+q.Encode(), &result); err != nil {
		return err
	}

	fmt.Printf("%s %s: dims %s, shape %v\n",
		result.Effect, result.Kind, strings.Join(result.Dims, "×"), result.Shape)
	n := len(result.FirstBlock)
	if n > 8 {
		n = 8
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			fmt.Printf("%4.1f", result.FirstBlock[i][j])
		}
		fmt.Println()
	}
	if n < len(result.FirstBlock) {
		fmt.Printf("... (%d×%d block truncated)\n", len(result.FirstBlock), len(result.FirstBlock))
	}
	return nil
}
