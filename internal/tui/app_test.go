package tui

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/theirongolddev/fincast/internal/advisor"
	"github.com/theirongolddev/fincast/internal/config"
	"github.com/theirongolddev/fincast/internal/poller"
	"github.com/theirongolddev/fincast/internal/report"
	"github.com/theirongolddev/fincast/internal/source"

	tea "github.com/charmbracelet/bubbletea"
)

type idleTicker struct{ c chan time.Time }

func (t idleTicker) C() <-chan time.Time { return t.c }
func (t idleTicker) Stop()               {}

func newTestApp(t *testing.T) (App, *poller.Poller) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	p := poller.New(source.StaticSource{}, poller.Config{
		Interval:  time.Hour,
		NewTicker: func(time.Duration) poller.Ticker { return idleTicker{c: make(chan time.Time)} },
	})
	t.Cleanup(p.Stop)

	a := NewApp(Options{
		Poller:    p,
		Advisor:   advisor.CannedAdvisor{},
		Predictor: report.SimulatedPredictor{},
		Config:    config.DefaultConfig(),
		ExportDir: t.TempDir(),
	})
	a.setupForm = nil
	return a, p
}

func waitReady(t *testing.T, p *poller.Poller) poller.Update {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if u := p.Current(); u.State != poller.Loading {
			return u
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("poller never settled")
	return poller.Update{}
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	nameWidths := []int{
		len("Dashboard"),
		len("Savings"),
		len("Chat"),
		len("Report"),
		len("Settings"),
	}
	for active := 0; active < 5; active++ {
		a := App{activeTab: active}
		pos := 0

		for i := 0; i < 5; i++ {
			w := nameWidths[i] + 2
			if i != active && i == 4 {
				w += 3 // inactive Settings adds "[x]"
			}
			x := pos + w/2
			if got := a.tabAtX(x); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, x, got, i)
			}
			pos += w
			if i < 4 {
				pos++
			}
		}
	}
}

func TestNewAppStartsLoading(t *testing.T) {
	a, _ := newTestApp(t)
	if a.current.State != poller.Loading {
		t.Fatalf("state = %s, want loading", a.current.State)
	}
	if a.currentView() != nil {
		t.Fatal("view present before first poll")
	}
}

func TestPollMsgAppliesUpdate(t *testing.T) {
	a, p := newTestApp(t)
	p.Start()
	u := waitReady(t, p)

	m, _ := a.Update(PollMsg{Update: u})
	a = m.(App)
	v := a.currentView()
	if v == nil {
		t.Fatal("ready update did not expose a view")
	}
	if len(v.Expenses) == 0 {
		t.Fatal("view has no expenses")
	}
}

func TestChatAskAndReply(t *testing.T) {
	a, _ := newTestApp(t)

	a, cmd := a.ask("   ")
	if cmd != nil || a.chat.userMessages() != 0 {
		t.Fatal("blank question was sent")
	}

	a, cmd = a.ask("How can I save more?")
	if cmd == nil || !a.chat.pending {
		t.Fatal("question not dispatched")
	}
	if again, cmd2 := a.ask("second"); cmd2 != nil || again.chat.userMessages() != 1 {
		t.Fatal("overlapping question was sent while a reply was pending")
	}

	m, _ := a.Update(cmd())
	a = m.(App)
	if a.chat.pending {
		t.Fatal("still pending after reply")
	}
	last := a.chat.messages[len(a.chat.messages)-1]
	if last.role != roleAssistant || last.text != advisor.CannedReply {
		t.Fatalf("last message = %+v", last)
	}
}

func TestChatSuggestionsOnlyBeforeFirstQuestion(t *testing.T) {
	a, _ := newTestApp(t)
	a.activeTab = tabChat

	m, cmd, handled := a.chatKey("1")
	if !handled || cmd == nil {
		t.Fatal("suggestion key not handled")
	}
	a = m.(App)
	if a.chat.messages[1].text != advisor.Suggestions[0].Question {
		t.Fatalf("sent %q", a.chat.messages[1].text)
	}
	if _, _, handled := a.chatKey("2"); handled {
		t.Fatal("suggestion accepted after first question")
	}
}

func TestQuitStopsPoller(t *testing.T) {
	a, p := newTestApp(t)
	p.Start()

	_, cmd := a.quit()
	if cmd == nil {
		t.Fatal("quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("quit command is not tea.Quit")
	}
	if _, ok := <-a.updates; ok {
		t.Fatal("subscription still open after quit")
	}
	ch, _ := p.Subscribe(1)
	if _, ok := <-ch; ok {
		t.Fatal("poller accepted a subscription after quit")
	}
}

func TestApplySetup(t *testing.T) {
	cfg := config.DefaultConfig()
	got := applySetup(cfg, &setupValues{
		sourceKind:  config.SourceFile,
		sourceURL:   "http://ignored",
		sourceFile:  "/tmp/log.json",
		advisorMode: config.AdvisorLLM,
		theme:       "no-such-theme",
	})
	if got.Source.Kind != config.SourceFile || got.Source.File != "/tmp/log.json" {
		t.Fatalf("source = %+v", got.Source)
	}
	if got.Source.URL != cfg.Source.URL {
		t.Fatalf("URL changed for file source: %q", got.Source.URL)
	}
	if got.Advisor.Mode != config.AdvisorLLM {
		t.Fatalf("advisor mode = %q", got.Advisor.Mode)
	}
	if got.Appearance.Theme != cfg.Appearance.Theme {
		t.Fatalf("invalid theme applied: %q", got.Appearance.Theme)
	}
}

func TestSettingsSaveValidates(t *testing.T) {
	a, _ := newTestApp(t)

	a.settings.cursor = 0 // Theme
	a = a.settingsSave("no-such-theme")
	if a.settings.saveErr == nil || a.settings.saved {
		t.Fatal("invalid theme accepted")
	}
	if config.Exists() {
		t.Fatal("config written for invalid input")
	}

	a.settings.cursor = 1 // Refresh Interval
	a = a.settingsSave("45")
	if a.settings.saveErr != nil {
		t.Fatalf("save: %v", a.settings.saveErr)
	}
	if a.opts.Config.General.RefreshSeconds != 45 {
		t.Fatalf("RefreshSeconds = %d", a.opts.Config.General.RefreshSeconds)
	}
	loaded, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.General.RefreshSeconds != 45 {
		t.Fatalf("persisted RefreshSeconds = %d", loaded.General.RefreshSeconds)
	}
}

func TestReportFailureReturnsToForm(t *testing.T) {
	a, _ := newTestApp(t)
	a.report.form = nil
	a.report.running = true

	m, _ := a.updateReportResult(reportDoneMsg{err: report.ValidationError{"age": "Age must be at least 18"}})
	a = m.(App)
	if a.report.running || a.report.form == nil {
		t.Fatal("failed report did not reopen the form")
	}
	var verr report.ValidationError
	if !errors.As(a.report.err, &verr) {
		t.Fatalf("err = %v", a.report.err)
	}
}

func TestReportExport(t *testing.T) {
	a, _ := newTestApp(t)
	pred := source.DemoPrediction()
	r := report.Build(pred.Input, pred.Output, time.Now())
	a.report.form = nil
	a.report.result = r

	m, _, handled := a.reportKey("a")
	if !handled || m.(App).report.notice == "" {
		t.Fatal("save without an appender gave no notice")
	}

	_, cmd, handled := a.reportKey("e")
	if !handled || cmd == nil {
		t.Fatal("export not handled")
	}
	msg, ok := cmd().(reportExportMsg)
	if !ok {
		t.Fatal("export returned wrong message")
	}
	if msg.err != nil {
		t.Fatalf("export: %v", msg.err)
	}
	if len(msg.paths) != 2 {
		t.Fatalf("exported %v, want pdf and png", msg.paths)
	}
	for _, p := range msg.paths {
		if fi, err := os.Stat(p); err != nil || fi.Size() == 0 {
			t.Fatalf("exported file %s missing or empty", p)
		}
	}
}

func TestValidNumber(t *testing.T) {
	for _, ok := range []string{"", "  ", "1200", "99.5"} {
		if err := validNumber(ok); err != nil {
			t.Errorf("validNumber(%q) = %v, want nil", ok, err)
		}
	}
	for _, bad := range []string{"abc", "NaN", "Inf", "-inf"} {
		if validNumber(bad) == nil {
			t.Errorf("validNumber(%q) accepted", bad)
		}
	}
}
