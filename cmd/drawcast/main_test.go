package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	service "github.com/okian/drawcast/internal/app"
	"github.com/okian/drawcast/internal/domain/model"
	"github.com/okian/drawcast/internal/testdraws"
)

// writePayload writes records in the upstream bare-array form.
func writePayload(t *testing.T, dir string, records []model.DrawRecord) string {
	t.Helper()
	rows := make([]map[string]string, 0, len(records))
	for _, r := range records {
		codes := make([]string, 0, 7)
		for _, n := range r.Numbers() {
			codes = append(codes, fmt.Sprint(n))
		}
		rows = append(rows, map[string]string{
			"expect":   fmt.Sprint(r.Period),
			"openTime": r.Date.Format("2006-01-02 15:04:05"),
			"openCode": strings.Join(codes, ","),
		})
	}
	b, err := json.Marshal(rows)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "payload.json")
	if err := os.WriteFile(path, b, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands(t *testing.T) {
	convey.Convey("Given a config file and an upstream payload", t, func() {
		dir := t.TempDir()
		cfgPath := filepath.Join(dir, "drawcast.yaml")
		yaml := fmt.Sprintf("db_path: %q\nstrategies: [heatmap]\nwindow: 5\nwarmup_min: 5\nworkers: 2\nlog_level: error\n",
			filepath.Join(dir, "draws.db"))
		convey.So(os.WriteFile(cfgPath, []byte(yaml), 0o600), convey.ShouldBeNil)

		records := testdraws.Generate(15, testdraws.WithSeed(21))
		payload := writePayload(t, dir, records)

		out, err := run("import", "--config", cfgPath, "--file", payload)
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldContainSubstring, "added 15, duplicates 0, invalid 0")

		convey.Convey("When importing the same payload again", func() {
			out, err := run("import", "--config", cfgPath, "--file", payload)

			convey.Convey("Then nothing new is stored", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "added 0, duplicates 15")
			})
		})

		convey.Convey("When predicting to a file", func() {
			target := filepath.Join(dir, "prediction.json")
			_, err := run("predict", "--config", cfgPath, "--output", target)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the file holds the prediction for the next period", func() {
				b, err := os.ReadFile(target)
				convey.So(err, convey.ShouldBeNil)
				var res service.PredictionResult
				convey.So(json.Unmarshal(b, &res), convey.ShouldBeNil)
				convey.So(res.Prediction.NextPeriod, convey.ShouldEqual, records[14].Period+1)
				convey.So(res.Prediction.Strategy, convey.ShouldEqual, "heatmap")
			})
		})

		convey.Convey("When backtesting as JSON", func() {
			out, err := run("backtest", "--config", cfgPath, "--window", "4", "--json")
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the report covers the requested window", func() {
				start := strings.Index(out, "{")
				convey.So(start, convey.ShouldBeGreaterThanOrEqualTo, 0)
				var report model.BacktestReport
				convey.So(json.Unmarshal([]byte(out[start:]), &report), convey.ShouldBeNil)
				convey.So(report.Window, convey.ShouldEqual, 4)
				convey.So(len(report.Steps), convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When backtesting as a table", func() {
			out, err := run("backtest", "--config", cfgPath)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "PERIOD")
			convey.So(out, convey.ShouldContainSubstring, "steps 5")
		})

		convey.Convey("When the window is too long", func() {
			_, err := run("backtest", "--config", cfgPath, "--window", "14")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given import without a file", t, func() {
		_, err := run("import")
		convey.So(err, convey.ShouldNotBeNil)
	})
}
