package review

import (
	"math"
	"testing"
	"time"

	"github.com/guttosm/sireview/internal/domain/models"
	"github.com/guttosm/sireview/internal/period"
)

func TestClassify_TableDriven(t *testing.T) {
	c := NewClassifier(mustTable(t))

	cases := []struct {
		name          string
		in            models.TradeRecord
		wantOK        bool
		inScope       bool
		mmExempt      bool
		regExempt     bool
		reviewInScope bool
		auction       bool
		hasPeriod     bool
		period        period.Label
	}{
		{
			name:   "split zero excluded",
			in:     models.TradeRecord{IssuerCode: "TRESORIT", SplitIndicator: 0},
			wantOK: false,
		},
		{
			name:          "in scope not exempt",
			in:            models.TradeRecord{IssuerCode: " tresorit ", SplitIndicator: 1, TradeDate: day(2020, time.April, 1)},
			wantOK:        true,
			inScope:       true,
			reviewInScope: true,
			hasPeriod:     true,
			period:        1,
		},
		{
			name:     "market maker exempt leaves review",
			in:       models.TradeRecord{IssuerCode: "RBBX", SplitIndicator: 2.5},
			wantOK:   true,
			inScope:  true,
			mmExempt: true,
		},
		{
			name:          "regulator exempt stays in review",
			in:            models.TradeRecord{IssuerCode: "RAVIN", SplitIndicator: 1},
			wantOK:        true,
			inScope:       true,
			regExempt:     true,
			reviewInScope: true,
		},
		{
			name:          "alternate code",
			in:            models.TradeRecord{IssuerCode: "cades", SplitIndicator: 1},
			wantOK:        true,
			inScope:       true,
			reviewInScope: true,
		},
		{
			name:   "unknown issuer out of scope",
			in:     models.TradeRecord{IssuerCode: "NOPE", SplitIndicator: 1},
			wantOK: true,
		},
		{
			name:          "missing split indicator kept",
			in:            models.TradeRecord{IssuerCode: "TRESORIT", SplitIndicator: math.NaN()},
			wantOK:        true,
			inScope:       true,
			reviewInScope: true,
		},
		{
			name:    "auction counterparty",
			in:      models.TradeRecord{CounterpartyCode: " 70627 ", SplitIndicator: 1},
			wantOK:  true,
			auction: true,
		},
		{
			name:    "auction counterparty as spreadsheet float",
			in:      models.TradeRecord{CounterpartyCode: "70627.0", SplitIndicator: 1},
			wantOK:  true,
			auction: true,
		},
		{
			name:   "other counterparty",
			in:     models.TradeRecord{CounterpartyCode: "706270", SplitIndicator: 1},
			wantOK: true,
		},
		{
			name:   "date before anchor has no period",
			in:     models.TradeRecord{SplitIndicator: 1, TradeDate: day(2019, time.June, 1)},
			wantOK: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := c.Classify(tc.in)
			if ok != tc.wantOK {
				t.Fatalf("ok: want %v got %v", tc.wantOK, ok)
			}
			if !ok {
				return
			}
			if got.InScope != tc.inScope || got.MarketMakerExempt != tc.mmExempt || got.RegulatorExempt != tc.regExempt ||
				got.ReviewInScope != tc.reviewInScope || got.IsAuction != tc.auction {
				t.Fatalf("unexpected flags: %+v", got)
			}
			if got.HasPeriod != tc.hasPeriod || (tc.hasPeriod && got.Period != tc.period) {
				t.Fatalf("period: want (%s,%v) got (%s,%v)", tc.period, tc.hasPeriod, got.Period, got.HasPeriod)
			}
		})
	}
}

func TestClassify_Normalizes(t *testing.T) {
	c := NewClassifier(mustTable(t))
	got, ok := c.Classify(models.TradeRecord{InstrumentID: " fr0000000001 ", IssuerCode: " tresorit", IssuerFullName: " Tresor ", SplitIndicator: 1})
	if !ok {
		t.Fatalf("unexpected exclusion")
	}
	if got.InstrumentID != "FR0000000001" || got.IssuerCode != "TRESORIT" || got.IssuerFullName != "Tresor" {
		t.Fatalf("not normalized: %+v", got.TradeRecord)
	}
}

func TestClassifyAll_CountsExclusions(t *testing.T) {
	c := NewClassifier(mustTable(t))
	in := []models.TradeRecord{
		{SplitIndicator: 0},
		{SplitIndicator: 1},
		{SplitIndicator: 0},
		{SplitIndicator: -1},
	}
	out, excluded := c.ClassifyAll(in)
	if len(out) != 2 || excluded != 2 {
		t.Fatalf("kept=%d excluded=%d", len(out), excluded)
	}
}
