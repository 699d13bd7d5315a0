package assistantService

import (
	"ShowroomGolang/internal/api/assistant"
	assistantRepository "ShowroomGolang/internal/api/assistant/repository"
	"ShowroomGolang/internal/entity"
	"ShowroomGolang/pkg/nlu"
	utilsPkg "ShowroomGolang/pkg/utils"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"runtime"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
)

// --- test doubles ---

type fakeInventory struct {
	vehicles []entity.Vehicle
	err      error
}

func (f *fakeInventory) Snapshot(ctx context.Context, userID string) ([]entity.Vehicle, error) {
	return f.vehicles, f.err
}

func (f *fakeInventory) RefreshSnapshot(ctx context.Context, userID string) ([]entity.Vehicle, error) {
	return f.vehicles, f.err
}

func (f *fakeInventory) DropSnapshot(ctx context.Context, userID string) error {
	return nil
}

type fakeResolver struct {
	cmd   *nlu.RecognizedCommand
	err   error
	block chan struct{}
}

func (f *fakeResolver) Resolve(ctx context.Context, commandText string) (*nlu.RecognizedCommand, error) {
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.cmd, nil
}

type fakeSynthesizer struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeSynthesizer) Speak(ctx context.Context, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, text)
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example.com/tts.mp3", nil
}

func (f *fakeSynthesizer) Speaking() bool { return false }

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioURL string) (string, error) {
	return f.text, f.err
}

type fakeGemini struct {
	chassis string
	found   bool
	err     error
}

func (f *fakeGemini) ExtractChassisNumber(ctx context.Context, base64Image string) (string, bool, error) {
	return f.chassis, f.found, f.err
}

type fakeS3 struct{}

func (f *fakeS3) UploadFile(file *multipart.FileHeader) (string, error) {
	return "https://bucket.example.com/audio.mp3", nil
}

func (f *fakeS3) UploadFileFromBytes(fileName string, data []byte) (string, error) {
	return "https://bucket.example.com/" + fileName, nil
}

func (f *fakeS3) PresignUrl(fileUrl string) (string, error) { return fileUrl + "?signed", nil }
func (f *fakeS3) DeleteFile(fileName string) error          { return nil }

type publishedAction struct {
	action  string
	payload map[string]interface{}
}

type fakeEvents struct {
	mu       sync.Mutex
	turns    []entity.ConversationTurn
	speaking []bool
	actions  []publishedAction
}

func (f *fakeEvents) PublishTurn(userID string, turn entity.ConversationTurn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = append(f.turns, turn)
}

func (f *fakeEvents) PublishSpeaking(userID string, speaking bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.speaking = append(f.speaking, speaking)
}

func (f *fakeEvents) PublishAction(userID string, action string, payload map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, publishedAction{action: action, payload: payload})
}

type fixture struct {
	svc       IAssistantService
	repo      *assistantRepository.Repository
	inventory *fakeInventory
	resolver  *fakeResolver
	synth     *fakeSynthesizer
	gemini    *fakeGemini
	events    *fakeEvents
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repo := assistantRepository.New(logger)
	inventory := &fakeInventory{}
	resolver := &fakeResolver{}
	synth := &fakeSynthesizer{}
	gem := &fakeGemini{}
	events := &fakeEvents{}

	svc := NewAssistantService(
		logger,
		repo,
		inventory,
		resolver,
		&fakeTranscriber{},
		synth,
		gem,
		&fakeS3{},
		utilsPkg.New(),
		events,
		DefaultConfig(),
	)

	return &fixture{
		svc:       svc,
		repo:      repo,
		inventory: inventory,
		resolver:  resolver,
		synth:     synth,
		gemini:    gem,
		events:    events,
	}
}

func openSession(t *testing.T, f *fixture, userID string) {
	t.Helper()
	if _, err := f.svc.OpenSession(context.Background(), entity.UserLoginData{ID: userID}); err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
}

func command(action nlu.Action, entities map[string]string) *nlu.RecognizedCommand {
	if entities == nil {
		entities = map[string]string{}
	}
	return &nlu.RecognizedCommand{
		Intent:     string(action),
		Entities:   entities,
		Confidence: 0.9,
		Action:     action,
	}
}

var showroomFixture = []entity.Vehicle{
	{ID: "v1", Manufacturer: "تويوتا", Category: "كامري", ChassisNumber: "ABC123", Status: entity.StatusAvailable},
	{ID: "v2", Manufacturer: "تويوتا", Category: "كورولا", ChassisNumber: "DEF456", Status: entity.StatusAvailable},
	{ID: "v3", Manufacturer: "هيونداي", Category: "سوناتا", ChassisNumber: "GHI789", Status: entity.StatusSold},
}

// --- dispatch ---

func TestProcessTextCommand_AddVehicle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	openSession(t, f, "u1")
	f.resolver.cmd = command(nlu.ActionAddVehicle, nil)

	resp, err := f.svc.ProcessTextCommand(context.Background(), "u1", "أضف سيارة جديدة")
	if err != nil {
		t.Fatalf("ProcessTextCommand: %v", err)
	}

	if !resp.Success {
		t.Error("expected success")
	}
	if resp.Turn.Affordance == nil || resp.Turn.Affordance.Kind != entity.AffordanceAdd {
		t.Errorf("expected add affordance, got %+v", resp.Turn.Affordance)
	}
	if len(f.events.actions) != 1 || f.events.actions[0].action != "open_add_form" {
		t.Errorf("expected open_add_form event, got %+v", f.events.actions)
	}
}

func TestProcessTextCommand_SearchMatchesSubstring(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		term string
		want int
	}{
		{"manufacturer substring", "تويوتا", 2},
		{"category substring", "كامري", 1},
		{"chassis substring", "DEF", 1},
		{"no match", "نيسان", 0},
		{"empty term matches all", "", 3},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.inventory.vehicles = showroomFixture
			openSession(t, f, "u1")
			f.resolver.cmd = command(nlu.ActionSearchVehicle, map[string]string{nlu.EntitySearchTerm: tc.term})

			resp, err := f.svc.ProcessTextCommand(context.Background(), "u1", "ابحث")
			if err != nil {
				t.Fatalf("ProcessTextCommand: %v", err)
			}

			// Search replies carry the count only, never an affordance.
			if resp.Turn.Affordance != nil {
				t.Errorf("search turn has affordance %+v, want none", resp.Turn.Affordance)
			}

			if tc.want == 0 {
				want := fmt.Sprintf(msgSearchNotFound, tc.term)
				if resp.Turn.Text != want {
					t.Errorf("reply = %q, want %q", resp.Turn.Text, want)
				}
				return
			}

			want := fmt.Sprintf(msgSearchFound, tc.want, tc.term)
			if resp.Turn.Text != want {
				t.Errorf("reply = %q, want %q", resp.Turn.Text, want)
			}
		})
	}
}

func TestProcessTextCommand_SellExactChassisOnly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		chassis string
		found   bool
	}{
		{"exact match", "ABC123", true},
		{"case mismatch", "abc123", false},
		{"longer than stored", "ABC1234", false},
		{"prefix of stored", "ABC12", false},
		{"empty chassis", "", false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			f.inventory.vehicles = showroomFixture
			openSession(t, f, "u1")
			f.resolver.cmd = command(nlu.ActionSellVehicle, map[string]string{nlu.EntityChassisNumber: tc.chassis})

			resp, err := f.svc.ProcessTextCommand(context.Background(), "u1", "بع السيارة")
			if err != nil {
				t.Fatalf("ProcessTextCommand: %v", err)
			}

			if tc.found {
				if resp.Turn.Affordance == nil || resp.Turn.Affordance.Kind != entity.AffordanceSell {
					t.Errorf("expected sell affordance, got %+v", resp.Turn.Affordance)
				}
				if len(f.events.actions) != 1 || f.events.actions[0].action != "open_sell_form" {
					t.Errorf("expected open_sell_form event, got %+v", f.events.actions)
				}
				return
			}

			if resp.Turn.Affordance != nil {
				t.Errorf("expected no affordance for %q, got %+v", tc.chassis, resp.Turn.Affordance)
			}
			if len(f.events.actions) != 0 {
				t.Errorf("expected no action events, got %+v", f.events.actions)
			}
			want := fmt.Sprintf(msgSellNotFound, tc.chassis)
			if resp.Turn.Text != want {
				t.Errorf("reply = %q, want %q", resp.Turn.Text, want)
			}
		})
	}
}

func TestProcessTextCommand_DeleteExactChassisOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.inventory.vehicles = showroomFixture
	openSession(t, f, "u1")
	f.resolver.cmd = command(nlu.ActionDeleteVehicle, map[string]string{nlu.EntityChassisNumber: "GHI789"})

	resp, err := f.svc.ProcessTextCommand(context.Background(), "u1", "احذف السيارة")
	if err != nil {
		t.Fatalf("ProcessTextCommand: %v", err)
	}

	if resp.Turn.Affordance == nil || resp.Turn.Affordance.Kind != entity.AffordanceDelete {
		t.Errorf("expected delete affordance, got %+v", resp.Turn.Affordance)
	}
	if len(f.events.actions) != 1 || f.events.actions[0].action != "open_delete_form" {
		t.Errorf("expected open_delete_form event, got %+v", f.events.actions)
	}
}

func TestProcessTextCommand_StatsCountsExactStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.inventory.vehicles = []entity.Vehicle{
		{ID: "v1", ChassisNumber: "A1", Status: entity.StatusAvailable},
		{ID: "v2", ChassisNumber: "A2", Status: entity.StatusAvailable},
		{ID: "v3", ChassisNumber: "A3", Status: entity.StatusSold},
		{ID: "v4", ChassisNumber: "A4", Status: entity.StatusInTransit},
	}
	openSession(t, f, "u1")
	f.resolver.cmd = command(nlu.ActionGetStats, nil)

	resp, err := f.svc.ProcessTextCommand(context.Background(), "u1", "كم سيارة عندي؟")
	if err != nil {
		t.Fatalf("ProcessTextCommand: %v", err)
	}

	want := fmt.Sprintf(msgStats, 4, 2, 1)
	if resp.Turn.Text != want {
		t.Errorf("reply = %q, want %q", resp.Turn.Text, want)
	}
}

func TestProcessTextCommand_UnknownEchoesResolverContent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	openSession(t, f, "u1")
	f.resolver.cmd = &nlu.RecognizedCommand{
		Intent:   "unknown",
		Entities: map[string]string{},
		Action:   nlu.ActionUnknown,
		Content:  "لم أفهم طلبك، هل يمكنك إعادة الصياغة؟",
	}

	resp, err := f.svc.ProcessTextCommand(context.Background(), "u1", "شيء غير مفهوم")
	if err != nil {
		t.Fatalf("ProcessTextCommand: %v", err)
	}

	if resp.Turn.Text != "لم أفهم طلبك، هل يمكنك إعادة الصياغة؟" {
		t.Errorf("unexpected reply %q", resp.Turn.Text)
	}
	if len(f.events.actions) != 0 {
		t.Errorf("unknown action must not emit host events, got %+v", f.events.actions)
	}
}

// --- failure handling ---

func TestProcessTextCommand_ResolverFailureProducesApologyTurn(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	openSession(t, f, "u1")
	f.resolver.err = errors.New("upstream unavailable")

	before := f.repo.Transcript.Len("u1")

	resp, err := f.svc.ProcessTextCommand(context.Background(), "u1", "أضف سيارة")
	if err != nil {
		t.Fatalf("resolver failure must not surface as a handler error: %v", err)
	}

	if resp.Success {
		t.Error("expected success=false")
	}
	if resp.Turn.Text != msgApology {
		t.Errorf("reply = %q, want apology", resp.Turn.Text)
	}

	// Exactly two turns appended: the user's utterance and one apology.
	if got := f.repo.Transcript.Len("u1"); got != before+2 {
		t.Errorf("transcript grew by %d turns, want 2", got-before)
	}

	// The session must be free for the next command.
	session, ok := f.repo.Sessions.Get("u1")
	if !ok {
		t.Fatal("session missing")
	}
	if session.Processing {
		t.Error("processing flag still set after failed turn")
	}
}

func TestProcessTextCommand_EmptyText(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	openSession(t, f, "u1")

	if _, err := f.svc.ProcessTextCommand(context.Background(), "u1", "   \n\t "); !errors.Is(err, assistant.ErrEmptyCommand) {
		t.Errorf("err = %v, want ErrEmptyCommand", err)
	}
	if f.repo.Transcript.Len("u1") != 1 { // greeting only
		t.Error("whitespace-only input must not append a turn")
	}
}

func TestProcessTextCommand_SynthesisFailureKeepsTurn(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	openSession(t, f, "u1")
	f.resolver.cmd = command(nlu.ActionAddVehicle, nil)
	f.synth.err = errors.New("tts down")

	resp, err := f.svc.ProcessTextCommand(context.Background(), "u1", "أضف سيارة")
	if err != nil {
		t.Fatalf("ProcessTextCommand: %v", err)
	}

	if !resp.Success {
		t.Error("speech failure must not fail the command")
	}
	if resp.AudioURL != "" {
		t.Errorf("AudioURL = %q, want empty", resp.AudioURL)
	}
	if resp.Turn.Text != msgAddVehicle {
		t.Errorf("reply = %q, want %q", resp.Turn.Text, msgAddVehicle)
	}
}

// --- single flight ---

func TestProcessTextCommand_SecondCommandRejectedWhileFirstRuns(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	openSession(t, f, "u1")
	f.resolver.cmd = command(nlu.ActionGetStats, nil)
	f.resolver.block = make(chan struct{})

	firstDone := make(chan error, 1)
	go func() {
		_, err := f.svc.ProcessTextCommand(context.Background(), "u1", "الإحصائيات")
		firstDone <- err
	}()

	// Wait until the first command holds the processing flag.
	for {
		session, ok := f.repo.Sessions.Get("u1")
		if ok && session.Processing {
			break
		}
		runtime.Gosched()
	}

	if _, err := f.svc.ProcessTextCommand(context.Background(), "u1", "أضف سيارة"); !errors.Is(err, assistant.ErrCommandInFlight) {
		t.Errorf("second command err = %v, want ErrCommandInFlight", err)
	}

	close(f.resolver.block)
	if err := <-firstDone; err != nil {
		t.Fatalf("first command: %v", err)
	}

	// Rejected command must leave no trace in the transcript.
	for _, turn := range f.repo.Transcript.List("u1") {
		if turn.Text == "أضف سيارة" {
			t.Error("rejected command leaked into transcript")
		}
	}
}

// scriptedResolver answers its first call immediately and parks the second
// one on gate.
type scriptedResolver struct {
	mu    sync.Mutex
	calls int
	cmd   *nlu.RecognizedCommand
	gate  chan struct{}
}

func (f *scriptedResolver) Resolve(ctx context.Context, commandText string) (*nlu.RecognizedCommand, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	if n == 2 {
		<-f.gate
	}
	return f.cmd, nil
}

// gatedSynthesizer parks its first call on gate and answers the rest
// immediately.
type gatedSynthesizer struct {
	mu    sync.Mutex
	calls int
	gate  chan struct{}
}

func (f *gatedSynthesizer) Speak(ctx context.Context, text string) (string, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	if n == 1 {
		<-f.gate
	}
	return "https://cdn.example.com/tts.mp3", nil
}

func (f *gatedSynthesizer) Speaking() bool { return false }

// The session frees for the next command while the previous reply's audio is
// still playing, so a finished command unwinds after its successor has been
// admitted. Its deferred release carries a stale token and must not free the
// session under the command now running.
func TestProcessTextCommand_FinishedCommandCannotReleaseSuccessor(t *testing.T) {
	t.Parallel()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	repo := assistantRepository.New(logger)
	resolver := &scriptedResolver{cmd: command(nlu.ActionAddVehicle, nil), gate: make(chan struct{})}
	synth := &gatedSynthesizer{gate: make(chan struct{})}
	svc := NewAssistantService(
		logger,
		repo,
		&fakeInventory{},
		resolver,
		&fakeTranscriber{},
		synth,
		&fakeGemini{},
		&fakeS3{},
		utilsPkg.New(),
		&fakeEvents{},
		DefaultConfig(),
	)

	if _, err := svc.OpenSession(context.Background(), entity.UserLoginData{ID: "u1"}); err != nil {
		t.Fatalf("OpenSession: %v", err)
	}

	firstDone := make(chan error, 1)
	go func() {
		_, err := svc.ProcessTextCommand(context.Background(), "u1", "أضف سيارة")
		firstDone <- err
	}()

	// The first command resolves at once and blocks inside Speak, having
	// already released the processing flag.
	for {
		session, _ := repo.Sessions.Get("u1")
		synth.mu.Lock()
		speaking := synth.calls == 1
		synth.mu.Unlock()
		if speaking && !session.Processing {
			break
		}
		runtime.Gosched()
	}

	secondDone := make(chan error, 1)
	go func() {
		_, err := svc.ProcessTextCommand(context.Background(), "u1", "الإحصائيات")
		secondDone <- err
	}()

	// The second command is admitted and blocks inside Resolve.
	for {
		session, _ := repo.Sessions.Get("u1")
		if session.Processing {
			break
		}
		runtime.Gosched()
	}

	// Unwind the first command; its deferred release runs with a stale token.
	close(synth.gate)
	if err := <-firstDone; err != nil {
		t.Fatalf("first command: %v", err)
	}

	if session, _ := repo.Sessions.Get("u1"); !session.Processing {
		t.Fatal("first command's exit released the session under the second command")
	}
	if _, err := svc.ProcessTextCommand(context.Background(), "u1", "احذف السيارة"); !errors.Is(err, assistant.ErrCommandInFlight) {
		t.Errorf("third command err = %v, want ErrCommandInFlight", err)
	}

	close(resolver.gate)
	if err := <-secondDone; err != nil {
		t.Fatalf("second command: %v", err)
	}
	if session, _ := repo.Sessions.Get("u1"); session.Processing {
		t.Error("processing flag still set after the second command finished")
	}
}

func TestProcessTextCommand_SessionRequired(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	if _, err := f.svc.ProcessTextCommand(context.Background(), "ghost", "مرحبا"); !errors.Is(err, assistant.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

// --- voice commands ---

func audioFileHeader(t *testing.T, name string, size int) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", name)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(make([]byte, size)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}
	return req.MultipartForm.File["audio"][0]
}

func TestProcessVoiceCommand(t *testing.T) {
	t.Parallel()

	t.Run("requires listening session", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		openSession(t, f, "u1")

		_, err := f.svc.ProcessVoiceCommand(context.Background(), "u1", audioFileHeader(t, "cmd.mp3", 128))
		if !errors.Is(err, assistant.ErrNotListening) {
			t.Errorf("err = %v, want ErrNotListening", err)
		}
	})

	t.Run("transcribes then dispatches and stops listening", func(t *testing.T) {
		t.Parallel()

		logger := logrus.New()
		logger.SetOutput(io.Discard)
		repo := assistantRepository.New(logger)
		events := &fakeEvents{}
		svc := NewAssistantService(
			logger,
			repo,
			&fakeInventory{},
			&fakeResolver{cmd: command(nlu.ActionAddVehicle, nil)},
			&fakeTranscriber{text: "أضف سيارة جديدة"},
			&fakeSynthesizer{},
			&fakeGemini{},
			&fakeS3{},
			utilsPkg.New(),
			events,
			DefaultConfig(),
		)

		if _, err := svc.OpenSession(context.Background(), entity.UserLoginData{ID: "u1"}); err != nil {
			t.Fatalf("OpenSession: %v", err)
		}
		if err := svc.StartListening(context.Background(), "u1"); err != nil {
			t.Fatalf("StartListening: %v", err)
		}

		resp, err := svc.ProcessVoiceCommand(context.Background(), "u1", audioFileHeader(t, "cmd.mp3", 128))
		if err != nil {
			t.Fatalf("ProcessVoiceCommand: %v", err)
		}

		if resp.Transcript != "أضف سيارة جديدة" {
			t.Errorf("Transcript = %q", resp.Transcript)
		}
		if resp.Turn.Text != msgAddVehicle {
			t.Errorf("reply = %q, want %q", resp.Turn.Text, msgAddVehicle)
		}

		session, _ := repo.Sessions.Get("u1")
		if session.Listening {
			t.Error("capture must end when the finalized utterance arrives")
		}
	})

	t.Run("rejects unsupported format", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		openSession(t, f, "u1")
		if err := f.svc.StartListening(context.Background(), "u1"); err != nil {
			t.Fatalf("StartListening: %v", err)
		}

		_, err := f.svc.ProcessVoiceCommand(context.Background(), "u1", audioFileHeader(t, "cmd.exe", 128))
		if !errors.Is(err, assistant.ErrUnsupportedFormat) {
			t.Errorf("err = %v, want ErrUnsupportedFormat", err)
		}
	})

	t.Run("rejects oversized audio", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		openSession(t, f, "u1")
		if err := f.svc.StartListening(context.Background(), "u1"); err != nil {
			t.Fatalf("StartListening: %v", err)
		}

		_, err := f.svc.ProcessVoiceCommand(context.Background(), "u1", audioFileHeader(t, "cmd.mp3", int(DefaultConfig().MaxAudioSize)+1))
		if !errors.Is(err, assistant.ErrAudioFileTooLarge) {
			t.Errorf("err = %v, want ErrAudioFileTooLarge", err)
		}
	})
}

// --- session lifecycle ---

func TestOpenSession_GreetsOnceAndKeepsTranscriptOnReopen(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	first, err := f.svc.OpenSession(context.Background(), entity.UserLoginData{ID: "u1"})
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	if first.Greeting.Text != msgGreeting {
		t.Errorf("greeting = %q, want %q", first.Greeting.Text, msgGreeting)
	}
	if len(first.Turns) != 1 {
		t.Fatalf("turns = %d, want 1", len(first.Turns))
	}

	second, err := f.svc.OpenSession(context.Background(), entity.UserLoginData{ID: "u1"})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if second.Greeting.Text != "" {
		t.Error("reopen must not greet again")
	}
	if len(second.Turns) != 1 {
		t.Errorf("reopen turns = %d, want 1", len(second.Turns))
	}
}

func TestCloseSession_ClearsDialogState(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	openSession(t, f, "u1")

	if err := f.svc.CloseSession(context.Background(), "u1"); err != nil {
		t.Fatalf("CloseSession: %v", err)
	}

	if _, ok := f.repo.Sessions.Get("u1"); ok {
		t.Error("session still present after close")
	}
	if f.repo.Transcript.Len("u1") != 0 {
		t.Error("transcript not cleared on close")
	}

	if err := f.svc.CloseSession(context.Background(), "u1"); !errors.Is(err, assistant.ErrSessionNotFound) {
		t.Errorf("double close err = %v, want ErrSessionNotFound", err)
	}
}

// A command still in flight when the session closes must not resurrect the
// cleared dialog when it finally completes: no appended turn, no published
// turn, no speech.
func TestCloseSession_InFlightCommandLeavesNoTrace(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	openSession(t, f, "u1")
	f.resolver.cmd = command(nlu.ActionAddVehicle, nil)
	f.resolver.block = make(chan struct{})

	done := make(chan assistant.CommandResponse, 1)
	go func() {
		resp, _ := f.svc.ProcessTextCommand(context.Background(), "u1", "أضف سيارة")
		done <- resp
	}()

	for {
		session, ok := f.repo.Sessions.Get("u1")
		if ok && session.Processing {
			break
		}
		runtime.Gosched()
	}

	if err := f.svc.CloseSession(context.Background(), "u1"); err != nil {
		t.Fatalf("CloseSession: %v", err)
	}

	close(f.resolver.block)
	resp := <-done

	// The caller still gets its reply; the dead dialog does not.
	if resp.Turn.Text != msgAddVehicle {
		t.Errorf("reply = %q, want %q", resp.Turn.Text, msgAddVehicle)
	}
	if n := f.repo.Transcript.Len("u1"); n != 0 {
		t.Errorf("transcript length = %d after close, want 0", n)
	}

	f.events.mu.Lock()
	for _, turn := range f.events.turns {
		if turn.Text == msgAddVehicle {
			t.Error("assistant turn published after the session closed")
		}
	}
	f.events.mu.Unlock()

	f.synth.mu.Lock()
	if n := len(f.synth.calls); n != 0 {
		t.Errorf("Speak called %d times for a closed session, want 0", n)
	}
	f.synth.mu.Unlock()

	// The dialog really is gone: reopening starts fresh and greets again.
	reopened, err := f.svc.OpenSession(context.Background(), entity.UserLoginData{ID: "u1"})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Greeting.Text != msgGreeting {
		t.Error("reopen after close must greet a fresh dialog")
	}
}

func TestListeningStateMachine(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if err := f.svc.StartListening(ctx, "ghost"); !errors.Is(err, assistant.ErrSessionNotFound) {
		t.Errorf("start without session err = %v, want ErrSessionNotFound", err)
	}

	openSession(t, f, "u1")

	if err := f.svc.StartListening(ctx, "u1"); err != nil {
		t.Fatalf("StartListening: %v", err)
	}
	session, _ := f.repo.Sessions.Get("u1")
	if !session.Listening {
		t.Error("expected listening=true")
	}

	// Stopping twice is safe.
	if err := f.svc.StopListening(ctx, "u1"); err != nil {
		t.Fatalf("StopListening: %v", err)
	}
	if err := f.svc.StopListening(ctx, "u1"); err != nil {
		t.Fatalf("second StopListening: %v", err)
	}
	session, _ = f.repo.Sessions.Get("u1")
	if session.Listening {
		t.Error("expected listening=false")
	}
}

// --- chassis extraction ---

func imageFileHeader(t *testing.T, size int) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="chassis.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	if _, err := part.Write(make([]byte, size)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}
	return req.MultipartForm.File["image"][0]
}

func TestProcessChassisImage_Outcomes(t *testing.T) {
	t.Parallel()

	t.Run("number extracted", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		openSession(t, f, "u1")
		f.gemini.chassis = "JTDBE32K123456789"
		f.gemini.found = true

		resp, err := f.svc.ProcessChassisImage(context.Background(), "u1", imageFileHeader(t, 256))
		if err != nil {
			t.Fatalf("ProcessChassisImage: %v", err)
		}

		if !resp.Success {
			t.Error("expected success")
		}
		want := fmt.Sprintf(msgChassisExtracted, "JTDBE32K123456789")
		if resp.Turn.Text != want {
			t.Errorf("reply = %q, want %q", resp.Turn.Text, want)
		}
		if resp.Turn.Affordance == nil || resp.Turn.Affordance.Kind != entity.AffordanceEdit {
			t.Errorf("expected edit affordance, got %+v", resp.Turn.Affordance)
		}
		if len(f.events.actions) != 1 || f.events.actions[0].action != "chassis_extracted" {
			t.Fatalf("expected chassis_extracted event, got %+v", f.events.actions)
		}
		if f.events.actions[0].payload["chassisNumber"] != "JTDBE32K123456789" {
			t.Errorf("event payload = %+v", f.events.actions[0].payload)
		}
	})

	t.Run("no number visible", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		openSession(t, f, "u1")
		f.gemini.found = false

		resp, err := f.svc.ProcessChassisImage(context.Background(), "u1", imageFileHeader(t, 256))
		if err != nil {
			t.Fatalf("ProcessChassisImage: %v", err)
		}

		if !resp.Success {
			t.Error("an image without a legible number is not a failure")
		}
		if resp.Turn.Text != msgChassisNotVisible {
			t.Errorf("reply = %q, want %q", resp.Turn.Text, msgChassisNotVisible)
		}
		if resp.Turn.Affordance != nil {
			t.Errorf("expected no affordance, got %+v", resp.Turn.Affordance)
		}
		if len(f.events.actions) != 0 {
			t.Errorf("expected no host events, got %+v", f.events.actions)
		}
	})

	t.Run("extraction failure yields apology", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		openSession(t, f, "u1")
		f.gemini.err = errors.New("vision service down")

		resp, err := f.svc.ProcessChassisImage(context.Background(), "u1", imageFileHeader(t, 256))
		if err != nil {
			t.Fatalf("extraction failure must not surface as a handler error: %v", err)
		}

		if resp.Success {
			t.Error("expected success=false")
		}
		if resp.Turn.Text != msgApology {
			t.Errorf("reply = %q, want apology", resp.Turn.Text)
		}

		session, _ := f.repo.Sessions.Get("u1")
		if session.Processing {
			t.Error("processing flag still set after failed extraction")
		}
	})

	t.Run("rejects non-image upload", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		openSession(t, f, "u1")

		_, err := f.svc.ProcessChassisImage(context.Background(), "u1", audioFileHeader(t, "notimage.mp3", 64))
		if !errors.Is(err, assistant.ErrInvalidImageFile) {
			t.Errorf("err = %v, want ErrInvalidImageFile", err)
		}
	})
}

// --- stats ---

func TestStats(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.inventory.vehicles = showroomFixture
	openSession(t, f, "u1")

	stats, err := f.svc.Stats(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	if stats.Total != 3 || stats.Available != 2 || stats.Sold != 1 {
		t.Errorf("stats = %+v, want total=3 available=2 sold=1", stats)
	}
}

func TestState(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	if _, err := f.svc.State(context.Background(), "ghost"); !errors.Is(err, assistant.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}

	openSession(t, f, "u1")

	state, err := f.svc.State(context.Background(), "u1")
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state.Listening || state.Processing || state.Speaking {
		t.Errorf("fresh session state = %+v, want all false", state)
	}

	if err := f.svc.StartListening(context.Background(), "u1"); err != nil {
		t.Fatalf("StartListening: %v", err)
	}
	state, err = f.svc.State(context.Background(), "u1")
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if !state.Listening {
		t.Error("expected listening=true after StartListening")
	}
}

func TestTranscript_RequiresSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	if _, err := f.svc.Transcript(context.Background(), "ghost"); !errors.Is(err, assistant.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}
