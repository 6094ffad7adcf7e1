package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/S0tham/Sofida/internal/i18n"
	"github.com/S0tham/Sofida/internal/llm"
	"github.com/S0tham/Sofida/internal/model"
	"github.com/S0tham/Sofida/internal/progress"
	"github.com/S0tham/Sofida/internal/session"
)

func TestMain(m *testing.M) {
	if err := i18n.Init("nl"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

const exerciseJSON = `{
  "instructions": "Vul het ontbrekende woord in.",
  "content": {
    "sentence": "She ___ to school every day.",
    "question": "She ___ to school every day.",
    "options": ["goes", "go", "went", "going"]
  },
  "answer_key": {"correct_answer": "goes", "correct_index": 0, "correct_option": "goes"},
  "metadata": {"theme": "school"}
}`

func newTestServer(t *testing.T, opts []Option, responses ...llm.MockResponse) (*httptest.Server, *llm.MockCompleter) {
	t.Helper()
	mock := llm.NewMockCompleter(responses...)
	m := session.NewManager(session.NewMemoryStore(), mock)
	h := New(m, opts...)

	r := chi.NewRouter()
	r.Use(CORS)
	r.Use(i18n.Middleware("nl"))
	h.Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, mock
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestSessionLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, nil,
		llm.MockResponse{Text: "Hoi, ik ben Meester Jan!"},
		llm.MockResponse{Text: exerciseJSON},
		llm.MockResponse{Text: "Goed gedaan!"},
	)

	// create
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/session", map[string]any{"tutor": "jan"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	created := decode[createSessionResponse](t, resp)
	if created.SessionID == "" {
		t.Fatal("no session id")
	}
	if len(created.State.ChatHistory) != 1 {
		t.Fatalf("greeting missing: %+v", created.State.ChatHistory)
	}
	base := srv.URL + "/api/session/" + created.SessionID

	// exercise
	resp = doJSON(t, http.MethodPost, base+"/exercise", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("exercise status = %d", resp.StatusCode)
	}
	exResp := decode[exerciseResponse](t, resp)
	ex := exResp.Exercise
	if !strings.HasPrefix(ex.ID, "ex_") {
		t.Errorf("exercise id = %q", ex.ID)
	}
	if exResp.State == nil || exResp.State.CurrentExerciseID != ex.ID {
		t.Errorf("exercise state = %+v", exResp.State)
	}

	// answer
	resp = doJSON(t, http.MethodPost, base+"/answer", map[string]string{"answer": "goes"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("answer status = %d", resp.StatusCode)
	}
	outcome := decode[answerResponse](t, resp)
	if outcome.Check.Result != model.ResultCorrect {
		t.Errorf("result = %q", outcome.Check.Result)
	}
	if outcome.Feedback.FeedbackText != "Goed gedaan!" {
		t.Errorf("feedback = %q", outcome.Feedback.FeedbackText)
	}
	if !strings.Contains(outcome.Summary, "nagekeken") {
		t.Errorf("summary = %q, want the Dutch summary line", outcome.Summary)
	}
	if outcome.State == nil || outcome.State.CurrentFeedback == nil {
		t.Errorf("answer state = %+v", outcome.State)
	}

	// state
	resp = doJSON(t, http.MethodGet, base, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	state := decode[model.PublicState](t, resp)
	if state.CurrentExerciseID != ex.ID || state.CurrentFeedback == nil {
		t.Errorf("state = %+v", state)
	}

	// end
	resp = doJSON(t, http.MethodDelete, base, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodGet, base, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", resp.StatusCode)
	}
}

func TestChatEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil,
		llm.MockResponse{Text: "Hoi!"},
		llm.MockResponse{Text: "Prima, en met jou?"},
	)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/session", nil)
	created := decode[createSessionResponse](t, resp)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/session/"+created.SessionID+"/chat",
		map[string]string{"message": "Hoe gaat het?"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat status = %d", resp.StatusCode)
	}
	chat := decode[chatResponse](t, resp)
	if chat.Reply != "Prima, en met jou?" {
		t.Errorf("reply = %q", chat.Reply)
	}
	if chat.State == nil || len(chat.State.ChatHistory) != 3 {
		t.Errorf("chat state = %+v", chat.State)
	}
}

func TestErrorMapping(t *testing.T) {
	srv, _ := newTestServer(t, nil,
		llm.MockResponse{Text: "Hoi!"},
		llm.MockResponse{Err: &llm.TransportError{Err: errors.New("refused")}},
	)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/session", nil)
	created := decode[createSessionResponse](t, resp)
	base := srv.URL + "/api/session/" + created.SessionID

	t.Run("unknown session is 404", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, srv.URL+"/api/session/nope", nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d", resp.StatusCode)
		}
		body := decode[map[string]string](t, resp)
		if body["error"] != "Sessie niet gevonden." {
			t.Errorf("error = %q", body["error"])
		}
	})

	t.Run("answer without exercise is 400", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, base+"/answer", map[string]string{"answer": "x"})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d", resp.StatusCode)
		}
	})

	t.Run("empty answer is 400", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, base+"/answer", map[string]string{"answer": ""})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d", resp.StatusCode)
		}
	})

	t.Run("empty chat message is 400", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, base+"/chat", map[string]string{"message": "  "})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d", resp.StatusCode)
		}
	})

	t.Run("backend failure during generation is 502", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, base+"/exercise", nil)
		if resp.StatusCode != http.StatusBadGateway {
			t.Errorf("status = %d", resp.StatusCode)
		}
	})
}

func TestGenerationErrorIs502(t *testing.T) {
	srv, _ := newTestServer(t, nil,
		llm.MockResponse{Text: "Hoi!"},
		llm.MockResponse{Text: "dit is geen JSON"},
	)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/session", nil)
	created := decode[createSessionResponse](t, resp)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/session/"+created.SessionID+"/exercise", nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
}

func TestUpdateConfigEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil, llm.MockResponse{Text: "Hoi!"})
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/session", nil)
	created := decode[createSessionResponse](t, resp)
	base := srv.URL + "/api/session/" + created.SessionID

	resp = doJSON(t, http.MethodPut, base+"/config", model.Config{
		Topic: "Past Simple", Theme: "reizen", Skill: model.SkillGrammar, Difficulty: model.DifficultyHard,
	})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, base, nil)
	state := decode[model.PublicState](t, resp)
	if state.Config.Topic != "Past Simple" || state.Config.Difficulty != model.DifficultyHard {
		t.Errorf("config = %+v", state.Config)
	}
}

func TestSetTutorEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil, llm.MockResponse{Text: "Hoi!"})
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/session", map[string]any{"tutor": "jan"})
	created := decode[createSessionResponse](t, resp)
	base := srv.URL + "/api/session/" + created.SessionID

	resp = doJSON(t, http.MethodPut, base+"/tutor", map[string]string{"tutor": "sara"})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, base, nil)
	state := decode[model.PublicState](t, resp)
	if state.Tutor.Name != "Coach Sara" {
		t.Errorf("tutor = %q, want Coach Sara", state.Tutor.Name)
	}

	resp = doJSON(t, http.MethodPut, base+"/tutor", map[string]string{"tutor": "nobody"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown tutor status = %d, want 400", resp.StatusCode)
	}
	body := decode[map[string]string](t, resp)
	if body["error"] != "Onbekende tutor." {
		t.Errorf("error = %q", body["error"])
	}
}

func TestProgressEndpoint(t *testing.T) {
	tracker, err := progress.New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { tracker.Close() })

	ex := &model.Exercise{ID: "ex_1", Type: model.TypeGapFill, Skill: model.SkillGrammar, Topic: "Past Simple", Difficulty: model.DifficultyMedium}
	if err := tracker.Record("s1", ex, &model.CheckResult{ExerciseID: "ex_1", Result: model.ResultIncorrect}); err != nil {
		t.Fatal(err)
	}

	srv, _ := newTestServer(t, []Option{WithProgress(tracker)})
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/progress", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decode[progressResponse](t, resp)
	if body.Stats.Total != 1 || len(body.WeakSpots) != 1 {
		t.Errorf("body = %+v", body)
	}
}

func TestSessionProgressEndpoint(t *testing.T) {
	tracker, err := progress.New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { tracker.Close() })

	srv, _ := newTestServer(t, []Option{WithProgress(tracker)}, llm.MockResponse{Text: "Hoi!"})
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/session", nil)
	created := decode[createSessionResponse](t, resp)

	ex := &model.Exercise{ID: "ex_1", Type: model.TypeGapFill, Skill: model.SkillGrammar, Topic: "Past Simple", Difficulty: model.DifficultyMedium}
	if err := tracker.Record(created.SessionID, ex, &model.CheckResult{ExerciseID: "ex_1", Result: model.ResultIncorrect}); err != nil {
		t.Fatal(err)
	}
	if err := tracker.Record("other-session", ex, &model.CheckResult{ExerciseID: "ex_1", Result: model.ResultIncorrect}); err != nil {
		t.Fatal(err)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/session/"+created.SessionID+"/progress", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decode[progressResponse](t, resp)
	if body.Stats.Total != 1 {
		t.Errorf("stats = %+v, want only this session's attempt", body.Stats)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/session/nope/progress", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown session status = %d", resp.StatusCode)
	}
}

func TestProgressDisabled(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/progress", nil)
	if resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/session", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow-origin = %q", got)
	}
}

type fakeTranscriber struct{ text string }

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return f.text, nil
}
func (f *fakeTranscriber) Close() error { return nil }

type fakeSynthesizer struct{}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return []byte("mp3:" + text), nil
}
func (f *fakeSynthesizer) Close() error { return nil }

func TestVoiceEndpoint(t *testing.T) {
	srv, _ := newTestServer(t,
		[]Option{WithSpeech(&fakeTranscriber{text: "Hoe gaat het?"}, &fakeSynthesizer{})},
		llm.MockResponse{Text: "Hoi!"},
		llm.MockResponse{Text: "Prima!"},
	)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/session", nil)
	created := decode[createSessionResponse](t, resp)

	req, err := http.NewRequest(http.MethodPost,
		srv.URL+"/api/session/"+created.SessionID+"/voice?speak=1",
		bytes.NewReader([]byte("fake-audio-bytes")))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "audio/wav")
	httpResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", httpResp.StatusCode)
	}
	var voice voiceResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&voice); err != nil {
		t.Fatal(err)
	}
	if voice.Transcript != "Hoe gaat het?" || voice.Reply != "Prima!" {
		t.Errorf("voice = %+v", voice)
	}
	if voice.ReplyAudio == "" {
		t.Error("reply audio missing")
	}
	if voice.State == nil || len(voice.State.ChatHistory) != 3 {
		t.Errorf("voice state = %+v", voice.State)
	}
}

func TestVoiceWithoutSpeakSkipsSynthesis(t *testing.T) {
	srv, _ := newTestServer(t,
		[]Option{WithSpeech(&fakeTranscriber{text: "Hoe gaat het?"}, &fakeSynthesizer{})},
		llm.MockResponse{Text: "Hoi!"},
		llm.MockResponse{Text: "Prima!"},
	)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/session", nil)
	created := decode[createSessionResponse](t, resp)

	req, _ := http.NewRequest(http.MethodPost,
		srv.URL+"/api/session/"+created.SessionID+"/voice", bytes.NewReader([]byte("x")))
	httpResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer httpResp.Body.Close()
	var voice voiceResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&voice); err != nil {
		t.Fatal(err)
	}
	if voice.Reply != "Prima!" {
		t.Errorf("reply = %q", voice.Reply)
	}
	if voice.ReplyAudio != "" {
		t.Errorf("reply audio = %q, want none without speak=1", voice.ReplyAudio)
	}
}

func TestVoiceDisabled(t *testing.T) {
	srv, _ := newTestServer(t, nil, llm.MockResponse{Text: "Hoi!"})
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/session", nil)
	created := decode[createSessionResponse](t, resp)

	req, _ := http.NewRequest(http.MethodPost,
		srv.URL+"/api/session/"+created.SessionID+"/voice", bytes.NewReader([]byte("x")))
	httpResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", httpResp.StatusCode)
	}
}
