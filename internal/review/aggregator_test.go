package review

import (
	"testing"
	"time"

	"github.com/guttosm/sireview/internal/domain/models"
)

func classify(t *testing.T, in []models.TradeRecord) []models.ClassifiedTrade {
	t.Helper()
	out, _ := NewClassifier(mustTable(t)).ClassifyAll(in)
	return out
}

func TestAggregate_Counts(t *testing.T) {
	q1 := day(2021, time.May, 3)  // P5
	q2 := day(2021, time.August, 3) // P6

	var in []models.TradeRecord
	in = append(in, trades(3, 2, "ISIN1", "TRESORIT", "Tresor", "C1", q1)...)
	in = append(in, trades(2, 10, "ISIN1", "TRESORIT", "Tresor", AuctionCounterparty, q2)...)
	in = append(in, trades(4, 20, "ISIN2", "RBBX", "Bank", AuctionCounterparty, q1)...) // mm exempt: auctions only
	in = append(in, trades(1, 30, "ISIN3", "TRESORIT", "Tresor", "C1", time.Time{})...) // no period

	a := Aggregate(classify(t, in))

	if got := a.TradeCounts[Key{"ISIN1", 5}]; got != 3 {
		t.Fatalf("ISIN1/P5 trades: %d", got)
	}
	if got := a.TradeCounts[Key{"ISIN1", 6}]; got != 2 {
		t.Fatalf("ISIN1/P6 trades: %d", got)
	}
	if got := a.AuctionCounts[Key{"ISIN1", 6}]; got != 2 {
		t.Fatalf("ISIN1/P6 auctions: %d", got)
	}
	if got := a.AuctionCounts[Key{"ISIN2", 5}]; got != 4 {
		t.Fatalf("auction counts must cover the whole population, got %d", got)
	}
	if got := a.TradeCounts[Key{"ISIN2", 5}]; got != 0 {
		t.Fatalf("mm exempt trades must not be counted, got %d", got)
	}
	if a.UnresolvedPeriod != 1 {
		t.Fatalf("unresolved: %d", a.UnresolvedPeriod)
	}
	if a.ReviewedTrades != 5 || a.AuctionTrades != 6 {
		t.Fatalf("reviewed=%d auctions=%d", a.ReviewedTrades, a.AuctionTrades)
	}

	ids := a.Instruments()
	if len(ids) != 1 || ids[0] != "ISIN1" {
		t.Fatalf("only instruments with in-review trades get a row, got %v", ids)
	}
	if len(a.Periods) != 2 {
		t.Fatalf("periods: %v", a.Periods.Sorted())
	}
}

func TestAggregate_IdentityIndependentOfOrder(t *testing.T) {
	d := day(2022, time.November, 1)
	first := trades(1, 7, "ISIN1", "TRESORIT", "Name at line 7", "C", d)
	second := trades(1, 3, "ISIN1", "CADES", "Name at line 3", "C", d)

	forward := Aggregate(classify(t, append(append([]models.TradeRecord{}, first...), second...)))
	backward := Aggregate(classify(t, append(append([]models.TradeRecord{}, second...), first...)))

	for _, a := range []*Aggregation{forward, backward} {
		id := a.Identities["ISIN1"]
		if id.IssuerCode != "CADES" || id.IssuerFullName != "Name at line 3" {
			t.Fatalf("identity must come from the smallest row reference, got %+v", id)
		}
	}
}

func TestAggregate_DuplicatesAccumulate(t *testing.T) {
	d := day(2022, time.November, 1)
	row := trades(1, 2, "ISIN1", "TRESORIT", "T", "C", d)
	in := append(append([]models.TradeRecord{}, row...), row...)
	a := Aggregate(classify(t, in))
	if got := a.TradeCounts[Key{"ISIN1", 11}]; got != 2 {
		t.Fatalf("duplicate rows must both count, got %d", got)
	}
}
