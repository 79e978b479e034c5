package security

import (
	"context"
	"testing"

	"github.com/blackwell-systems/depsnap/internal/store"
)

func namesOnly(names ...string) []*store.SnapshotDependency {
	deps := make([]*store.SnapshotDependency, len(names))
	for i, name := range names {
		deps[i] = &store.SnapshotDependency{Name: name, Version: "1.0.0"}
	}
	return deps
}

func TestCheckTyposquatting_TruePositive(t *testing.T) {
	alerts := CheckTyposquatting(context.Background(), namesOnly("lodahs"))
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert for lodahs, got %d", len(alerts))
	}

	alert := alerts[0]
	if alert.Package != "lodahs" || alert.Similar != "lodash" {
		t.Errorf("alert = %+v, want lodahs vs lodash", alert)
	}
	if alert.Distance != 1 {
		t.Errorf("distance = %d, want 1", alert.Distance)
	}
	if alert.Confidence < 0.7 {
		t.Errorf("confidence = %f, want >= 0.7", alert.Confidence)
	}
}

func TestCheckTyposquatting_ExactNameNeverAlerts(t *testing.T) {
	alerts := CheckTyposquatting(context.Background(), namesOnly("lodash", "react", "axios"))
	if len(alerts) != 0 {
		t.Errorf("installing the real popular packages should not alert, got %+v", alerts)
	}
}

func TestCheckTyposquatting_DistantNamesIgnored(t *testing.T) {
	alerts := CheckTyposquatting(context.Background(), namesOnly("left-pad", "some-internal-lib"))
	if len(alerts) != 0 {
		t.Errorf("unrelated names should not alert, got %+v", alerts)
	}
}

func TestCheckTyposquatting_ShortNameConfidenceFilter(t *testing.T) {
	// "vue" vs "vuv" is distance 1 but confidence 1 - 1/3 ≈ 0.67 < 0.7.
	alerts := CheckTyposquatting(context.Background(), namesOnly("vuv"))
	if len(alerts) != 0 {
		t.Errorf("short-name low-confidence match should be filtered, got %+v", alerts)
	}
}

func TestCheckTyposquatting_OneAlertPerDependency(t *testing.T) {
	// "reactt" is within distance 2 of both "react" (1) and "react-dom"
	// (distance 4, too far) — but even with multiple plausible matches
	// only the first qualifying popular name is reported.
	alerts := CheckTyposquatting(context.Background(), namesOnly("reactt"))
	if len(alerts) != 1 {
		t.Fatalf("expected exactly 1 alert per dependency, got %d", len(alerts))
	}
	if alerts[0].Similar != "react" {
		t.Errorf("matched %s, want react (watch-list order tie-break)", alerts[0].Similar)
	}
}

func TestCheckTyposquatting_EmptyList(t *testing.T) {
	if alerts := CheckTyposquatting(context.Background(), nil); alerts != nil {
		t.Errorf("empty dependency list should produce no alerts, got %+v", alerts)
	}
}

func TestMatchPopular_Confidence(t *testing.T) {
	alert, ok := matchPopular("expresss")
	if !ok {
		t.Fatal("expresss should match express")
	}
	// distance 1, max len 8 → 1 - 1/8 = 0.875
	if alert.Confidence != 0.875 {
		t.Errorf("confidence = %f, want 0.875", alert.Confidence)
	}
}

func TestBuildContext(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, "hooked", `{"scripts": {"postinstall": "node x.js"}}`)

	secCtx, err := BuildContext(context.Background(), root, namesOnly("lodahs", "hooked"))
	if err != nil {
		t.Fatalf("BuildContext() failed: %v", err)
	}

	if len(secCtx.PostinstallScripts) != 1 {
		t.Errorf("expected 1 postinstall entry, got %d", len(secCtx.PostinstallScripts))
	}
	if len(secCtx.TyposquattingSuspects) != 1 {
		t.Errorf("expected 1 typosquat alert, got %d", len(secCtx.TyposquattingSuspects))
	}
	if len(secCtx.IntegrityIssues) != 0 {
		t.Errorf("IntegrityIssues is reserved and must stay empty, got %+v", secCtx.IntegrityIssues)
	}
}
