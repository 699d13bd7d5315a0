package gemini

import "testing"

func TestParseChassisReply(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		reply     string
		want      string
		wantFound bool
		wantErr   bool
	}{
		{
			name:      "plain json",
			reply:     `{"chassisNumber": "JTDBE32K123456789"}`,
			want:      "JTDBE32K123456789",
			wantFound: true,
		},
		{
			name:      "fenced json",
			reply:     "```json\n{\"chassisNumber\": \"ABC123\"}\n```",
			want:      "ABC123",
			wantFound: true,
		},
		{
			name:      "no number in image",
			reply:     `{"chassisNumber": ""}`,
			wantFound: false,
		},
		{
			name:      "whitespace only number",
			reply:     `{"chassisNumber": "   "}`,
			wantFound: false,
		},
		{
			name:    "non-json reply",
			reply:   "I could not read the image.",
			wantErr: true,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, found, err := parseChassisReply(tc.reply)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseChassisReply: %v", err)
			}
			if found != tc.wantFound {
				t.Fatalf("found = %v, want %v", found, tc.wantFound)
			}
			if found && got != tc.want {
				t.Errorf("chassis = %q, want %q", got, tc.want)
			}
		})
	}
}
