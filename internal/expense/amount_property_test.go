package expense

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genAmount generates positive amounts with up to two decimal places.
func genAmount() gopter.Gen {
	return gen.IntRange(1, 10_000_00).Map(func(cents int) string {
		if cents%100 == 0 {
			return fmt.Sprintf("%d", cents/100)
		}
		return fmt.Sprintf("%d.%02d", cents/100, cents%100)
	})
}

// genDescription generates non-empty descriptions without surrounding
// whitespace.
func genDescription() gopter.Gen {
	return gen.Identifier()
}

func TestParseEntryProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("valid amount with description parses", prop.ForAll(
		func(amount, description string) bool {
			entry, err := ParseEntry(amount + " " + description)
			if err != nil {
				return false
			}
			return entry.Amount == amount && entry.Description == description
		},
		genAmount(),
		genDescription(),
	))

	properties.Property("comma decimal separator normalizes to dot", prop.ForAll(
		func(amount string) bool {
			withComma := strings.ReplaceAll(amount, ".", ",")
			entry, err := ParseEntry(withComma + " lunch")
			if err != nil {
				return false
			}
			return entry.Amount == amount
		},
		genAmount(),
	))

	properties.Property("amount-only entries have empty description", prop.ForAll(
		func(amount string) bool {
			entry, err := ParseEntry(amount)
			if err != nil {
				return false
			}
			return entry.Description == "" && entry.String() == amount
		},
		genAmount(),
	))

	properties.Property("non-numeric first token is rejected", prop.ForAll(
		func(word string) bool {
			if word == "" {
				return true
			}
			_, err := ParseEntry(word + " 25.50")
			return err != nil
		},
		gen.RegexMatch(`^[a-zA-Z]+$`),
	))

	properties.TestingRun(t)
}

func TestParseEntryEdgeCases(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"empty", "", false},
		{"whitespace", "   ", false},
		{"zero amount", "0 nothing", false},
		{"negative amount", "-5 refund", false},
		{"plain integer", "25 groceries", true},
		{"comma amount", "25,10 street food with family", true},
		{"multi-word description", "25.50 groceries at the market", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := ParseEntry(tt.input)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Fatalf("expected error, got %+v", entry)
			}
		})
	}

	entry, err := ParseEntry("25,10 street food with family")
	if err != nil {
		t.Fatal(err)
	}
	if entry.Amount != "25.10" || entry.Description != "street food with family" {
		t.Errorf("unexpected entry: %+v", entry)
	}
}
