package annotate

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/ritzau/recgraph/pkg/graph"
	"github.com/ritzau/recgraph/pkg/table"
)

func scoreTable() dataframe.DataFrame {
	return dataframe.New(
		series.New([]int{1, 2}, series.Int, "id"),
		series.New([]float64{5, 9}, series.Float, "score"),
		series.New([]string{"news", "music"}, series.String, "channel"),
	)
}

func TestFromTable(t *testing.T) {
	g := graph.New()
	g.AddNode("1")
	g.AddNode("2")

	if err := FromTable(g, scoreTable(), "id", []string{"score", "channel"}); err != nil {
		t.Fatalf("FromTable() error = %v", err)
	}

	n1, _ := g.Node("1")
	n2, _ := g.Node("2")
	if f, _ := n1.Attr("score").Float(); f != 5 {
		t.Errorf("Expected node 1 score 5, got %v", n1.Attr("score"))
	}
	if f, _ := n2.Attr("score").Float(); f != 9 {
		t.Errorf("Expected node 2 score 9, got %v", n2.Attr("score"))
	}
	if s, _ := n2.Attr("channel").Str(); s != "music" {
		t.Errorf("Expected node 2 channel music, got %v", n2.Attr("channel"))
	}
}

func TestFromTableFirstMatchWins(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"a", "a"}, series.String, "id"),
		series.New([]float64{1, 2}, series.Float, "score"),
	)
	g := graph.New()
	g.AddNode("a")

	if err := FromTable(g, df, "id", []string{"score"}); err != nil {
		t.Fatalf("FromTable() error = %v", err)
	}
	n, _ := g.Node("a")
	if f, _ := n.Attr("score").Float(); f != 1 {
		t.Errorf("Expected first row's score 1, got %v", n.Attr("score"))
	}
}

func TestFromTableMissingNode(t *testing.T) {
	g := graph.New()
	g.AddNode("1")
	g.AddNode("42")

	err := FromTable(g, scoreTable(), "id", []string{"score"})
	if !errors.Is(err, ErrNodeNotInTable) {
		t.Errorf("Expected ErrNodeNotInTable, got %v", err)
	}
}

func TestFromTableUnknownColumn(t *testing.T) {
	g := graph.New()
	g.AddNode("1")

	err := FromTable(g, scoreTable(), "id", []string{"likes"})
	if !errors.Is(err, table.ErrUnknownColumn) {
		t.Errorf("Expected ErrUnknownColumn, got %v", err)
	}
}

func TestFromTableNaNIsMissing(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"a"}, series.String, "id"),
		series.New([]float64{math.NaN()}, series.Float, "score"),
	)
	g := graph.New()
	g.AddNode("a")

	if err := FromTable(g, df, "id", []string{"score"}); err != nil {
		t.Fatalf("FromTable() error = %v", err)
	}
	n, _ := g.Node("a")
	if !n.Attr("score").IsMissing() {
		t.Errorf("Expected NaN to become missing, got %v", n.Attr("score"))
	}
}

func TestValuesSkipsMissing(t *testing.T) {
	g := graph.New()
	g.AddNode("1").SetAttr("score", graph.Number(5))
	g.AddNode("2").SetAttr("score", graph.Number(9))
	g.AddNode("3")

	values := Values(g, "score")
	if len(values) != 2 {
		t.Fatalf("Expected 2 values, got %d", len(values))
	}
	if f, _ := values[0].Float(); f != 5 {
		t.Errorf("Expected first value 5, got %v", values[0])
	}
	if f, _ := values[1].Float(); f != 9 {
		t.Errorf("Expected second value 9, got %v", values[1])
	}
}

func TestFloatsRejectsText(t *testing.T) {
	g := graph.New()
	g.AddNode("1").SetAttr("score", graph.Text("high"))

	if _, err := Floats(g, "score"); !errors.Is(err, ErrNotNumeric) {
		t.Errorf("Expected ErrNotNumeric, got %v", err)
	}
}

func TestConvertToDate(t *testing.T) {
	g := graph.New()
	g.AddNode("v").SetAttr("uploaded", graph.Text("2021-06-15"))

	if err := ConvertToDate(g, "uploaded"); err != nil {
		t.Fatalf("ConvertToDate() error = %v", err)
	}

	n, _ := g.Node("v")
	d, ok := n.Attr("uploaded").Time()
	if !ok {
		t.Fatalf("Expected a date, got %s", n.Attr("uploaded").Kind())
	}
	if d.Year() != 2021 || d.Month() != 6 || d.Day() != 15 {
		t.Errorf("Expected 2021-06-15, got %v", d)
	}
}

func TestConvertToDateInvalid(t *testing.T) {
	tests := []struct {
		name  string
		value graph.Value
	}{
		{"wrong order", graph.Text("06-15-2021")},
		{"single digits", graph.Text("2021-6-15")},
		{"not a date", graph.Text("yesterday")},
		{"missing", graph.Missing},
		{"number", graph.Number(20210615)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.New()
			g.AddNode("ok").SetAttr("uploaded", graph.Text("2021-01-01"))
			g.AddNode("bad").SetAttr("uploaded", tt.value)

			err := ConvertToDate(g, "uploaded")
			if !errors.Is(err, ErrInvalidDate) {
				t.Fatalf("Expected ErrInvalidDate, got %v", err)
			}

			ok, _ := g.Node("ok")
			if ok.Attr("uploaded").Kind() != graph.KindText {
				t.Error("A failed conversion should leave the graph untouched")
			}
		})
	}
}
