package actions

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestRunPlanJson(t *testing.T) {
	var out bytes.Buffer
	err := RunPlan(&PlanConfig{
		LogLevel:   "error",
		Pipeline:   testPipelineConfig(),
		Format:     OutputFormatJson,
		WithTables: true,
		Out:        &out,
	})
	if err != nil {
		t.Fatal(err)
	}
	p := struct {
		Pipeline struct {
			Name   string `json:"name"`
			Stages []struct {
				Name string `json:"name"`
				Jobs []struct {
					Name string `json:"name"`
				} `json:"jobs"`
			} `json:"stages"`
		} `json:"pipeline"`
		Target string        `json:"target"`
		Bucket string        `json:"bucket"`
		Stage  string        `json:"stage"`
		Retry  string        `json:"retry"`
		Tables []interface{} `json:"tables"`
	}{}
	if err := json.Unmarshal(out.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if len(p.Pipeline.Stages) != 3 || len(p.Pipeline.Stages[2].Jobs) != 1 {
		t.Fatal("unexpected stages in plan: ", out.String())
	}
	if p.Target != "ANALYTICS.ADVENTURE_WORKS" || p.Bucket != "s3://sales-bucket/daily" || p.Stage != "SALES_STAGE" {
		t.Fatal("unexpected plan: ", out.String())
	}
	if p.Retry != "attempts=2 backoff=0s maxBackoff=0s" {
		t.Fatal("unexpected retry policy in plan: ", p.Retry)
	}
	if len(p.Tables) != 6 {
		t.Fatal("expected 6 tables in plan; got ", len(p.Tables))
	}
}

func TestRunPlanYaml(t *testing.T) {
	var out bytes.Buffer
	err := RunPlan(&PlanConfig{LogLevel: "error", Pipeline: testPipelineConfig(), Format: OutputFormatYaml, Out: &out})
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"target: ANALYTICS.ADVENTURE_WORKS", "name: transform_data", "schedule: '@daily'"} {
		if !strings.Contains(out.String(), s) {
			t.Fatalf("expected plan to contain %q; got:\n%v", s, out.String())
		}
	}
	if strings.Contains(out.String(), "tables:") {
		t.Fatal("tables should only be printed on request")
	}
}

func TestRunPlanBadFormat(t *testing.T) {
	err := RunPlan(&PlanConfig{LogLevel: "error", Pipeline: testPipelineConfig(), Format: "xml", Out: &bytes.Buffer{}})
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
