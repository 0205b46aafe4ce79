package scanner_test

import (
	"context"
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/starford/vaultedit/internal/apperr"
	"github.com/starford/vaultedit/internal/checksum"
	"github.com/starford/vaultedit/internal/models"
	"github.com/starford/vaultedit/internal/scanner"
	"github.com/starford/vaultedit/internal/testutil"
)

func TestMain(m *testing.M) {
	testutil.RunScannerHelper()
	os.Exit(m.Run())
}

func TestRunnerOK(t *testing.T) {
	dir, files := testutil.TestVault(t)
	testutil.WriteFiles(t, files, map[string]string{
		"notes.md": "# Title\n#work [[Plan]]\n",
	})
	r := testutil.ScannerRunner(dir, testutil.ModeOK, 10*time.Second)
	res, err := r.Scan(context.Background(), "notes.md")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.Tags, []string{"work"}) || !reflect.DeepEqual(res.Links, []string{"Plan"}) {
		t.Fatalf("result = %+v", res)
	}
	if res.Path != "notes.md" {
		t.Fatalf("path = %q", res.Path)
	}
}

func TestRunnerFailures(t *testing.T) {
	dir, files := testutil.TestVault(t)
	testutil.WriteFiles(t, files, map[string]string{"a.md": "#x"})

	tests := []struct {
		mode   string
		reason string
	}{
		{testutil.ModeFail, "non-zero exit"},
		{testutil.ModeGarbage, "malformed output"},
		{testutil.ModePartial, "malformed output"},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			r := testutil.ScannerRunner(dir, tt.mode, 10*time.Second)
			_, err := r.Scan(context.Background(), "a.md")
			if !errors.Is(err, apperr.ErrScanFailure) {
				t.Fatalf("err = %v", err)
			}
			var se *apperr.ScanError
			if !errors.As(err, &se) || !strings.HasPrefix(se.Reason, tt.reason) {
				t.Fatalf("err = %#v", err)
			}
			if tt.mode == testutil.ModeFail && (se.ExitCode != 3 || !strings.Contains(se.Stderr, "exploded")) {
				t.Fatalf("exit = %d stderr = %q", se.ExitCode, se.Stderr)
			}
		})
	}
}

func TestRunnerTimeout(t *testing.T) {
	dir, files := testutil.TestVault(t)
	testutil.WriteFiles(t, files, map[string]string{"a.md": "#x"})
	r := testutil.ScannerRunner(dir, testutil.ModeSleep, 200*time.Millisecond)

	start := time.Now()
	_, err := r.Scan(context.Background(), "a.md")
	if !errors.Is(err, apperr.ErrScanFailure) {
		t.Fatalf("err = %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("timeout not enforced")
	}
}

func TestRunnerNoCommand(t *testing.T) {
	r := &scanner.Runner{}
	if _, err := r.Scan(context.Background(), "a.md"); !errors.Is(err, apperr.ErrScanFailure) {
		t.Fatalf("err = %v", err)
	}
}

func TestBridgeSyncAndFailure(t *testing.T) {
	dir, files := testutil.TestVault(t)
	db := testutil.TestStore(t)
	testutil.WriteFiles(t, files, map[string]string{
		"notes.md": "#project [[Notes]]\n",
	})
	logger := testutil.DiscardLogger()

	ok := scanner.NewBridge(db, files, testutil.ScannerRunner(dir, testutil.ModeOK, 10*time.Second).Scan, logger)
	if err := ok.Sync(context.Background(), "notes.md"); err != nil {
		t.Fatal(err)
	}
	tags, _ := db.QueryTags("pro")
	if !reflect.DeepEqual(tags, []string{"project"}) {
		t.Fatalf("tags = %v", tags)
	}
	cs, _ := db.GetChecksum("notes.md")
	if cs != checksum.SumString("#project [[Notes]]\n") {
		t.Fatalf("checksum = %q", cs)
	}

	// A failing scan leaves the rows untouched.
	testutil.WriteFiles(t, files, map[string]string{"notes.md": "#other"})
	bad := scanner.NewBridge(db, files, testutil.ScannerRunner(dir, testutil.ModeFail, 10*time.Second).Scan, logger)
	if err := bad.Sync(context.Background(), "notes.md"); !errors.Is(err, apperr.ErrScanFailure) {
		t.Fatalf("err = %v", err)
	}
	tags, _ = db.QueryTags("")
	if !reflect.DeepEqual(tags, []string{"project"}) {
		t.Fatalf("tags after failed scan = %v", tags)
	}
	f, _ := db.FileByPath("notes.md")
	links, _ := db.OutgoingLinks(f.ID)
	if len(links) != 1 || links[0].TargetName != "Notes" {
		t.Fatalf("links after failed scan = %+v", links)
	}
}

func TestBridgeForgetAndTouch(t *testing.T) {
	_, files := testutil.TestVault(t)
	db := testutil.TestStore(t)
	b := scanner.NewBridge(db, files, nil, testutil.DiscardLogger())

	if err := b.Apply("src.md", "c1", &models.ScanResult{Links: []string{"Target"}}); err != nil {
		t.Fatal(err)
	}
	if err := b.Touch("Target.md"); err != nil {
		t.Fatal(err)
	}
	back, _ := db.BacklinksToPath("Target.md")
	if len(back) != 1 {
		t.Fatalf("backlinks = %+v", back)
	}
	if err := b.Forget("Target.md"); err != nil {
		t.Fatal(err)
	}
	src, _ := db.FileByPath("src.md")
	links, _ := db.OutgoingLinks(src.ID)
	if len(links) != 1 || !links[0].Dangling() {
		t.Fatalf("links = %+v", links)
	}
}

func TestBridgeRetriesConflictOnce(t *testing.T) {
	db := testutil.TestStore(t)
	_, files := testutil.TestVault(t)

	flaky := &flakyStore{DB: db, failures: 1}
	b := scanner.NewBridge(flaky, files, nil, testutil.DiscardLogger())
	if err := b.Apply("a.md", "c", &models.ScanResult{Tags: []string{"x"}}); err != nil {
		t.Fatalf("single conflict not retried: %v", err)
	}
	if flaky.calls != 2 {
		t.Fatalf("calls = %d", flaky.calls)
	}

	flaky = &flakyStore{DB: db, failures: 2}
	b = scanner.NewBridge(flaky, files, nil, testutil.DiscardLogger())
	err := b.Apply("b.md", "c", &models.ScanResult{Tags: []string{"y"}})
	if !errors.Is(err, apperr.ErrScanFailure) || !errors.Is(err, apperr.ErrStoreConflict) {
		t.Fatalf("err = %v", err)
	}
	if flaky.calls != 2 {
		t.Fatalf("calls = %d", flaky.calls)
	}
}
