package httpapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fitaccess/kiosk/internal/httpapi"
	"github.com/fitaccess/kiosk/internal/kiosk/overlay"
	"github.com/fitaccess/kiosk/internal/kiosk/service"
	"github.com/fitaccess/kiosk/internal/kiosk/store/memory"
	"github.com/fitaccess/kiosk/internal/kiosk/types"
)

func activeRecord(id, code string) types.MembershipRecord {
	end := time.Now().AddDate(1, 0, 0)
	plan := "mem_diario"
	return types.MembershipRecord{
		ID:       id,
		Name:     "Demo Client",
		State:    types.StateActive,
		EndDate:  &end,
		PlanID:   &plan,
		PlanName: "Plan Diario",
		Modality: types.ModalityDaily,
		Code:     code,
	}
}

// newTestServer wires the full dependency graph on the in-memory store and
// returns an httptest.Server whose URL can be hit with a plain http.Client.
func newTestServer(t *testing.T, st *memory.Store) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ovl := overlay.New(time.Second)
	adm := service.NewAdmission(service.Dependencies{
		Logger:         logger,
		Memberships:    st,
		Attendance:     st,
		Overlay:        ovl,
		WeeklyLimit:    3,
		DebounceWindow: time.Second,
	})

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:    logger,
		Addr:      ":0",
		Admission: adm,
		Overlay:   ovl,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(ovl.Stop)
	return ts
}

// ── Scan ─────────────────────────────────────────────────────────────────────

func TestScan_ActiveMember_Granted(t *testing.T) {
	st := memory.New()
	st.AddMembership(activeRecord("cli_001", "ABC123"))
	ts := newTestServer(t, st)

	body := []byte(`{"code":"ABC123","source":"code"}`)
	resp, err := http.Post(ts.URL+"/v1/scan", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var d types.Decision
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if d.Outcome != types.Granted {
		t.Errorf("expected outcome=granted, got %q", d.Outcome)
	}
	if d.Record == nil || d.Record.ID != "cli_001" {
		t.Errorf("expected record for cli_001, got %+v", d.Record)
	}
	if got := len(st.Events()); got != 1 {
		t.Errorf("expected 1 attendance event, got %d", got)
	}
}

func TestScan_UnknownCode_Denied(t *testing.T) {
	ts := newTestServer(t, memory.New())

	body := []byte(`{"code":"NOPE"}`)
	resp, err := http.Post(ts.URL+"/v1/scan", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var d types.Decision
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if d.Outcome != types.Denied {
		t.Errorf("expected outcome=denied, got %q", d.Outcome)
	}
	if d.Reason != types.ReasonUnknownCredential {
		t.Errorf("expected reason=unknown_credential, got %q", d.Reason)
	}
}

func TestScan_DebouncedRepeat_204(t *testing.T) {
	st := memory.New()
	st.AddMembership(activeRecord("cli_001", "ABC123"))
	ts := newTestServer(t, st)

	body := []byte(`{"code":"ABC123"}`)
	first, err := http.Post(ts.URL+"/v1/scan", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("first post: %v", err)
	}
	first.Body.Close()
	if first.StatusCode != http.StatusOK {
		t.Fatalf("first scan: expected 200, got %d", first.StatusCode)
	}

	second, err := http.Post(ts.URL+"/v1/scan", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("second post: %v", err)
	}
	second.Body.Close()
	if second.StatusCode != http.StatusNoContent {
		t.Fatalf("repeat scan inside window: expected 204, got %d", second.StatusCode)
	}
}

func TestScan_EmptyCode_204(t *testing.T) {
	ts := newTestServer(t, memory.New())

	body := []byte(`{"code":"   "}`)
	resp, err := http.Post(ts.URL+"/v1/scan", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}

func TestScan_InvalidJSON_400(t *testing.T) {
	ts := newTestServer(t, memory.New())

	body := []byte(`not json at all`)
	resp, err := http.Post(ts.URL+"/v1/scan", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestScan_InvalidSource_400(t *testing.T) {
	ts := newTestServer(t, memory.New())

	body := []byte(`{"code":"ABC123","source":"telepathy"}`)
	resp, err := http.Post(ts.URL+"/v1/scan", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ── Status ───────────────────────────────────────────────────────────────────

func TestStatus_IdleByDefault(t *testing.T) {
	ts := newTestServer(t, memory.New())

	resp, err := http.Get(ts.URL + "/v1/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var status struct {
		Overlay  overlay.Snapshot    `json:"overlay"`
		Actuator types.ActuatorState `json:"actuator"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if status.Overlay.State != types.OverlayIdle {
		t.Errorf("expected overlay idle, got %q", status.Overlay.State)
	}
	if status.Actuator != types.ActuatorDisconnected {
		t.Errorf("expected actuator disconnected, got %q", status.Actuator)
	}
}

func TestStatus_ReflectsGrantedOverlay(t *testing.T) {
	st := memory.New()
	st.AddMembership(activeRecord("cli_001", "ABC123"))
	ts := newTestServer(t, st)

	body := []byte(`{"code":"ABC123"}`)
	resp, err := http.Post(ts.URL+"/v1/scan", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()

	statusResp, err := http.Get(ts.URL + "/v1/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer statusResp.Body.Close()

	var status struct {
		Overlay overlay.Snapshot `json:"overlay"`
	}
	if err := json.NewDecoder(statusResp.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if status.Overlay.State != types.OverlayGranted {
		t.Errorf("expected overlay granted right after an admitted scan, got %q", status.Overlay.State)
	}
}

// ── Actuator reconnect ───────────────────────────────────────────────────────

func TestReconnect_NoActuator_503(t *testing.T) {
	ts := newTestServer(t, memory.New())

	resp, err := http.Post(ts.URL+"/v1/actuator/reconnect", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}
