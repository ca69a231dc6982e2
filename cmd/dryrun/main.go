// Command dryrun parses a purchase-order email body and prints what the
// watcher would extract from it, without touching any external service.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"github.com/rl1809/po-watcher/internal/core/domain"
	"github.com/rl1809/po-watcher/internal/core/lineitem"
	"github.com/rl1809/po-watcher/internal/core/mailbody"
)

type itemReport struct {
	Record   domain.RawItemRecord `json:"record"`
	Quantity *int                 `json:"quantity,omitempty"`
	Rate     *decimal.Decimal     `json:"rate,omitempty"`
	Error    string               `json:"error,omitempty"`
}

type report struct {
	Items    []itemReport `json:"items"`
	Valid    int          `json:"valid"`
	Rejected int          `json:"rejected"`
}

func main() {
	file := pflag.StringP("file", "f", "-", "body to parse; - reads stdin")
	encoded := pflag.Bool("encoded", false, "input is a base64url transport-encoded body")
	pflag.Parse()

	in := os.Stdin
	if *file != "-" {
		f, err := os.Open(*file)
		if err != nil {
			log.Fatalf("failed to open input: %v", err)
		}
		defer f.Close()
		in = f
	}

	if err := run(in, os.Stdout, *encoded); err != nil {
		log.Fatalf("dry run failed: %v", err)
	}
}

func run(in io.Reader, out io.Writer, encoded bool) error {
	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	body := string(raw)
	if encoded {
		if body, err = mailbody.DecodeData(body); err != nil {
			return err
		}
	}

	records, err := lineitem.Parse(body)
	if err != nil {
		return err
	}

	rep := report{Items: make([]itemReport, 0, len(records))}
	for _, rec := range records {
		item := itemReport{Record: rec}
		c, err := lineitem.Coerce(rec)
		if err != nil {
			item.Error = err.Error()
			rep.Rejected++
		} else {
			item.Quantity = &c.Quantity
			item.Rate = &c.Rate
			rep.Valid++
		}
		rep.Items = append(rep.Items, item)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
