package assistantHandler

import "testing"

func TestParseInputFrame(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		frame      inputFrame
		wantText   string
		wantSubmit bool
	}{
		{
			name:       "enter submits",
			frame:      inputFrame{Text: "أضف سيارة", Enter: true},
			wantText:   "أضف سيارة",
			wantSubmit: true,
		},
		{
			name:       "shift enter never submits",
			frame:      inputFrame{Text: "أضف سيارة", Enter: true, Shift: true},
			wantSubmit: false,
		},
		{
			name:       "typing without enter is state only",
			frame:      inputFrame{Text: "أضف"},
			wantSubmit: false,
		},
		{
			name:       "enter on empty text is a no-op",
			frame:      inputFrame{Text: "", Enter: true},
			wantSubmit: false,
		},
		{
			name:       "enter on whitespace only is a no-op",
			frame:      inputFrame{Text: "   \n\t  ", Enter: true},
			wantSubmit: false,
		},
		{
			name:       "submitted text is trimmed",
			frame:      inputFrame{Text: "  بع السيارة  ", Enter: true},
			wantText:   "بع السيارة",
			wantSubmit: true,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			text, submit := parseInputFrame(tc.frame)
			if submit != tc.wantSubmit {
				t.Fatalf("submit = %v, want %v", submit, tc.wantSubmit)
			}
			if submit && text != tc.wantText {
				t.Errorf("text = %q, want %q", text, tc.wantText)
			}
		})
	}
}
