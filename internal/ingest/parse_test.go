package ingest

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/refcue/internal/utils"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name    string
		subject string
		snippet string
		want    ParsedConnection
	}{
		{
			name:    "name and company",
			subject: "Jane Doe accepted your invitation",
			snippet: "Jane Doe is now a connection. Jane Doe works at Acme Corp.",
			want:    ParsedConnection{Name: "Jane Doe", CompanyGuess: utils.Ptr("Acme Corp")},
		},
		{
			name:    "no markers",
			subject: "Random subject",
			snippet: "no markers here",
			want:    ParsedConnection{Name: "Unknown"},
		},
		{
			name:    "marker case folded",
			subject: "  John Smith ACCEPTED YOUR INVITATION to connect",
			snippet: "John WORKS AT Globex",
			want:    ParsedConnection{Name: "John Smith", CompanyGuess: utils.Ptr("Globex")},
		},
		{
			name:    "company ends at first period",
			subject: "Ann accepted your invitation",
			snippet: "Ann works at  Initech Inc. Say hi. Really.",
			want:    ParsedConnection{Name: "Ann", CompanyGuess: utils.Ptr("Initech Inc")},
		},
		{
			name:    "marker at start leaves name unknown",
			subject: "accepted your invitation",
			snippet: "works at ",
			want:    ParsedConnection{Name: "Unknown", CompanyGuess: utils.Ptr("")},
		},
		{
			name:    "non ascii text around markers",
			subject: "Zoë Ångström accepted your invitation",
			snippet: "Zoë works at Société Générale.",
			want:    ParsedConnection{Name: "Zoë Ångström", CompanyGuess: utils.Ptr("Société Générale")},
		},
		{
			name:    "empty input",
			want:    ParsedConnection{Name: "Unknown"},
		},
		{
			name:    "invalid utf8",
			subject: "\xff\xfe accepted your invitation",
			snippet: "works at \xff.",
			want:    ParsedConnection{Name: "\xff\xfe", CompanyGuess: utils.Ptr("\xff")},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.subject, tc.snippet)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Parse(%q, %q) mismatch (-want +got):\n%s", tc.subject, tc.snippet, diff)
			}
		})
	}
}
