package envfile

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genEnvKey generates a valid environment variable key.
func genEnvKey() gopter.Gen {
	return gen.IntRange(1, 30).FlatMap(func(v interface{}) gopter.Gen {
		length := v.(int)
		return gen.SliceOfN(length, gen.IntRange(0, 62)).Map(func(chars []int) string {
			result := make([]byte, len(chars))
			for i, c := range chars {
				if i == 0 {
					if c < 26 {
						result[i] = byte('A' + c)
					} else if c < 52 {
						result[i] = byte('a' + (c - 26))
					} else {
						result[i] = '_'
					}
				} else {
					if c < 26 {
						result[i] = byte('A' + c)
					} else if c < 52 {
						result[i] = byte('a' + (c - 26))
					} else if c < 62 {
						result[i] = byte('0' + (c - 52))
					} else {
						result[i] = '_'
					}
				}
			}
			return string(result)
		})
	}, nil)
}

// genEnvValue generates a printable-ASCII environment variable value.
func genEnvValue() gopter.Gen {
	return gen.IntRange(0, 50).FlatMap(func(v interface{}) gopter.Gen {
		length := v.(int)
		return gen.SliceOfN(length, gen.IntRange(32, 126)).Map(func(chars []int) string {
			result := make([]byte, len(chars))
			for i, c := range chars {
				result[i] = byte(c)
			}
			return string(result)
		})
	}, nil)
}

func TestRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("round-trip preserves all key-value pairs", prop.ForAll(
		func(key string, value string) bool {
			vars := map[string]string{key: value}

			parsed := Parse(Serialize(vars))
			if len(parsed) != 1 {
				return false
			}

			actualValue, exists := parsed[key]
			return exists && actualValue == value
		},
		genEnvKey(),
		genEnvValue(),
	))

	properties.TestingRun(t)
}

func TestParseHandlesCommentsAndExports(t *testing.T) {
	content := `# This is a comment
BOT_TOKEN=123456:abcdef
# Another comment
export SPREADSHEET_ID=sheet-1
  # Indented comment
GOOGLE_CREDS_JSON="ey\nJ0"

NOT_A_PAIR`

	vars := Parse(content)

	if len(vars) != 3 {
		t.Fatalf("expected 3 vars, got %d: %v", len(vars), vars)
	}
	if vars["BOT_TOKEN"] != "123456:abcdef" {
		t.Errorf("BOT_TOKEN: got %q", vars["BOT_TOKEN"])
	}
	if vars["SPREADSHEET_ID"] != "sheet-1" {
		t.Errorf("SPREADSHEET_ID: got %q", vars["SPREADSHEET_ID"])
	}
	if vars["GOOGLE_CREDS_JSON"] != "ey\nJ0" {
		t.Errorf("GOOGLE_CREDS_JSON: got %q", vars["GOOGLE_CREDS_JSON"])
	}
}
