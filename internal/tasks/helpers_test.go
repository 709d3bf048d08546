package tasks

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/boardsync/internal/services"
	"github.com/desertthunder/boardsync/internal/shared"
	tu "github.com/desertthunder/boardsync/internal/testing"
)

const (
	listDesign   = "L1"
	listCoding   = "L2"
	listDocs     = "L3"
	listResearch = "L4"
	listQA       = "L5"
	listInbox    = "L0"
)

func testBoardConfig() shared.BoardConfig {
	return shared.BoardConfig{
		BoardID:       "board-1",
		DefaultListID: listInbox,
		Lists: map[string]string{
			"design":        listDesign,
			"coding":        listCoding,
			"docs-training": listDocs,
			"out-research":  listResearch,
			"qa":            listQA,
		},
		CustomFields: shared.CustomFieldsConfig{
			IsDesign:   "f-design",
			IsCode:     "f-code",
			IsDocs:     "f-docs",
			IsResearch: "f-research",
			IsQA:       "f-qa",
			ProgramID:  "f-pid",
			Tags:       "f-tags",
			Owner:      "f-owner",
			Points:     "f-points",
			Blocked:    "f-blocked",
		},
	}
}

func testConfig() *shared.Config {
	return &shared.Config{
		Board:    testBoardConfig(),
		Defaults: map[string]any{},
		Server:   shared.ServerConfig{CallbackURL: "http://fake/webhooks/board"},
		Sync:     shared.SyncConfig{Workers: 3},
	}
}

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestBoardAdapter(t *testing.T, board services.BoardService, logger *log.Logger) (*BoardAdapter, *Registry) {
	t.Helper()

	if logger == nil {
		logger = discardLogger()
	}
	registry := NewRegistry(nil, logger)
	adapter, err := NewBoardAdapter(board, registry, testBoardConfig(), logger)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return adapter, registry
}

func newTestEngine(t *testing.T, board *tu.FakeBoard, program *tu.FakeProgram, logger *log.Logger) *SyncEngine {
	t.Helper()

	if logger == nil {
		logger = discardLogger()
	}
	engine, err := NewSyncEngine(board, program, testConfig(), EngineOpts{Logger: logger})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return engine
}

func checked(fieldID string) services.CustomFieldItem {
	return services.CustomFieldItem{IDCustomField: fieldID, Value: services.Checked(true)}
}

func text(fieldID, s string) services.CustomFieldItem {
	return services.CustomFieldItem{IDCustomField: fieldID, Value: services.Text(s)}
}

func number(fieldID, n string) services.CustomFieldItem {
	return services.CustomFieldItem{IDCustomField: fieldID, Value: services.Number(n)}
}

func card(id, name, list string, items ...services.CustomFieldItem) services.Card {
	return services.Card{
		ID:               id,
		Name:             name,
		IDList:           list,
		DateLastActivity: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		CustomFieldItems: items,
	}
}

func intPtr(i int) *int { return &i }

func boolPtr(b bool) *bool { return &b }
