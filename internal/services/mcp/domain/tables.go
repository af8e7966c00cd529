package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/rolltables/internal/platform/errors"
	tables "github.com/louisbranch/rolltables/internal/services/tables/domain"
	"github.com/louisbranch/rolltables/internal/services/tables/engine"
	"github.com/louisbranch/rolltables/internal/services/tables/service"
	"github.com/louisbranch/rolltables/internal/services/tables/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// TableListURI addresses the table list resource.
const TableListURI = "tables://list"

const resourcePageSize = 100

// TableService is the subset of the table service the tools call.
type TableService interface {
	Draw(ctx context.Context, req service.DrawRequest) (service.DrawResult, error)
	Preview(ctx context.Context, req service.DrawRequest) (service.DrawResult, error)
	GetTable(ctx context.Context, ref tables.Reference) (tables.Table, error)
	ListTables(ctx context.Context, req service.ListRequest) (storage.TablePage, error)
	ListPacks(ctx context.Context) ([]string, error)
	ResetTable(ctx context.Context, ref tables.Reference) (tables.Table, error)
	SetKind(ctx context.Context, ref tables.Reference, kind tables.Kind) (tables.Table, error)
}

// ResourceUpdateNotifier tells subscribed clients a resource changed.
type ResourceUpdateNotifier func(ctx context.Context, uri string)

// TableDrawInput represents the MCP tool input for a draw.
type TableDrawInput struct {
	TableID string  `json:"table_id" jsonschema:"table identifier"`
	Pack    string  `json:"pack,omitempty" jsonschema:"optional compendium pack; pack draws are never committed"`
	Shallow bool    `json:"shallow,omitempty" jsonschema:"return reference entries instead of expanding them"`
	Samples []int   `json:"samples,omitempty" jsonschema:"optional forced samples consumed before random ones"`
	Seed    *uint64 `json:"seed,omitempty" jsonschema:"optional seed for deterministic draws"`
	Preview bool    `json:"preview,omitempty" jsonschema:"resolve without marking entries drawn"`
	Locale  string  `json:"locale,omitempty" jsonschema:"optional locale for diagnostic messages (en-US or pt-BR)"`
}

// DrawnEntry is one terminal entry of a draw.
type DrawnEntry struct {
	EntryID string `json:"entry_id" jsonschema:"entry identifier"`
	Text    string `json:"text" jsonschema:"entry text"`
	Source  string `json:"source" jsonschema:"table the entry was drawn from"`
	Depth   int    `json:"depth" jsonschema:"nesting depth of the source table"`
}

// DiagnosticEntry is one non-fatal condition met during a draw.
type DiagnosticEntry struct {
	Severity  string `json:"severity" jsonschema:"INFO, WARN or ERROR"`
	Condition string `json:"condition" jsonschema:"condition identifier"`
	Table     string `json:"table" jsonschema:"table the condition was met on"`
	Message   string `json:"message" jsonschema:"localized description"`
}

// MarkedEntries lists the entries a committed draw flagged as drawn.
type MarkedEntries struct {
	Table    string   `json:"table" jsonschema:"world table identifier"`
	EntryIDs []string `json:"entry_ids" jsonschema:"entries marked drawn"`
}

// TableDrawResult represents the MCP tool output for a draw.
type TableDrawResult struct {
	Table       string            `json:"table" jsonschema:"drawn table"`
	Mode        string            `json:"mode" jsonschema:"selection mode (range or weight)"`
	Hits        []DrawnEntry      `json:"hits" jsonschema:"entries of the drawn table the samples landed on, before references were followed"`
	Results     []DrawnEntry      `json:"results" jsonschema:"terminal entries in depth-first order"`
	Samples     []int             `json:"samples" jsonschema:"every sample consumed, outer table first"`
	Seed        uint64            `json:"seed" jsonschema:"seed used for random samples"`
	SeedSource  string            `json:"seed_source" jsonschema:"seed source (client or server)"`
	Committed   bool              `json:"committed" jsonschema:"whether drawn entries were marked"`
	Marked      []MarkedEntries   `json:"marked" jsonschema:"entries marked drawn by the commit"`
	Diagnostics []DiagnosticEntry `json:"diagnostics" jsonschema:"non-fatal conditions met during the draw"`
}

// TableListInput represents the MCP tool input for listing tables.
type TableListInput struct {
	Filter    string `json:"filter,omitempty" jsonschema:"optional AIP-160 filter over id, name, kind, formula, replacement, updated_at"`
	PageSize  int    `json:"page_size,omitempty" jsonschema:"optional page size (default 50, max 200)"`
	PageToken string `json:"page_token,omitempty" jsonschema:"optional token from a previous page"`
}

// TableSummary is a table without its entries.
type TableSummary struct {
	ID          string `json:"id" jsonschema:"table identifier"`
	Name        string `json:"name" jsonschema:"table name"`
	Kind        string `json:"kind" jsonschema:"standard or treasure"`
	Formula     string `json:"formula" jsonschema:"roll formula"`
	Replacement bool   `json:"replacement" jsonschema:"whether drawn entries stay eligible"`
	Entries     int    `json:"entries" jsonschema:"number of entries"`
	Remaining   int    `json:"remaining" jsonschema:"number of entries still eligible"`
}

// TableListResult represents the MCP tool output for listing tables.
type TableListResult struct {
	Tables        []TableSummary `json:"tables" jsonschema:"tables on this page"`
	NextPageToken string         `json:"next_page_token,omitempty" jsonschema:"token for the next page, if any"`
}

// TableRefInput names a table.
type TableRefInput struct {
	TableID string `json:"table_id" jsonschema:"table identifier"`
	Pack    string `json:"pack,omitempty" jsonschema:"optional compendium pack"`
}

// TableEntry is one row of a table.
type TableEntry struct {
	ID        string `json:"id" jsonschema:"entry identifier"`
	Text      string `json:"text" jsonschema:"entry text"`
	Low       int    `json:"low" jsonschema:"low end of the range"`
	High      int    `json:"high" jsonschema:"high end of the range"`
	Weight    int    `json:"weight" jsonschema:"treasure weight"`
	Drawn     bool   `json:"drawn" jsonschema:"whether the entry is excluded from future draws"`
	Reference string `json:"reference,omitempty" jsonschema:"table the entry expands into"`
}

// TableDetail represents the MCP tool output for one table.
type TableDetail struct {
	TableSummary
	Pack    string       `json:"pack,omitempty" jsonschema:"compendium pack, if any"`
	Rows    []TableEntry `json:"rows" jsonschema:"table entries"`
	Summary string       `json:"summary" jsonschema:"one line description"`
}

// TableSetKindInput represents the MCP tool input for switching a table kind.
type TableSetKindInput struct {
	TableID string `json:"table_id" jsonschema:"world table identifier"`
	Kind    string `json:"kind" jsonschema:"standard or treasure"`
}

// TableDrawTool defines the MCP tool schema for draws.
func TableDrawTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "table_draw",
		Description: "Draws from a roll table, expanding nested tables, and marks drawn entries unless preview is set",
	}
}

// TableListTool defines the MCP tool schema for listing tables.
func TableListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "table_list",
		Description: "Lists world roll tables with an optional filter",
	}
}

// TableGetTool defines the MCP tool schema for reading a table.
func TableGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "table_get",
		Description: "Returns a roll table with its entries",
	}
}

// TableResetTool defines the MCP tool schema for resetting drawn flags.
func TableResetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "table_reset",
		Description: "Makes every entry of a world table eligible again",
	}
}

// TableSetKindTool defines the MCP tool schema for switching a table kind.
func TableSetKindTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "table_set_kind",
		Description: "Switches a world table between standard and treasure draws",
	}
}

// TableListResource defines the readable table list.
func TableListResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "table_list",
		Title:       "Roll Tables",
		Description: "Readable listing of world roll tables and compendium packs",
		MIMEType:    "application/json",
		URI:         TableListURI,
	}
}

// TableDrawHandler resolves a table and commits the draw unless it is a
// preview or targets a pack.
func TableDrawHandler(svc TableService, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[TableDrawInput, TableDrawResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TableDrawInput) (*mcp.CallToolResult, TableDrawResult, error) {
		req := service.DrawRequest{
			Table:   tables.Reference{Pack: strings.TrimSpace(input.Pack), TableID: strings.TrimSpace(input.TableID)},
			Shallow: input.Shallow,
			Samples: input.Samples,
			Locale:  input.Locale,
		}
		if input.Seed != nil {
			seed := int64(*input.Seed)
			req.Seed = &seed
		}

		draw := svc.Draw
		if input.Preview || !req.Table.InWorld() {
			draw = svc.Preview
		}
		result, err := draw(ctx, req)
		if err != nil {
			return nil, TableDrawResult{}, toolError(err, input.Locale)
		}
		if result.Committed && len(result.Marked) > 0 && notify != nil {
			notify(ctx, TableListURI)
		}
		return nil, drawResult(result), nil
	}
}

func drawResult(result service.DrawResult) TableDrawResult {
	out := TableDrawResult{
		Table:       result.Table.Ref().String(),
		Mode:        result.Mode.String(),
		Hits:        make([]DrawnEntry, 0, len(result.Hits)),
		Results:     make([]DrawnEntry, 0, len(result.Outcome.Results)),
		Samples:     append([]int{}, result.Outcome.Samples...),
		Seed:        uint64(result.Outcome.Seed),
		SeedSource:  string(result.Outcome.SeedSource),
		Committed:   result.Committed,
		Marked:      make([]MarkedEntries, 0, len(result.Marked)),
		Diagnostics: make([]DiagnosticEntry, 0, len(result.Outcome.Diagnostics)),
	}
	for _, e := range result.Hits {
		out.Hits = append(out.Hits, DrawnEntry{EntryID: e.ID, Text: e.Text, Source: out.Table})
	}
	for _, r := range result.Outcome.Results {
		out.Results = append(out.Results, DrawnEntry{
			EntryID: r.Entry.ID,
			Text:    r.Entry.Text,
			Source:  r.Source.String(),
			Depth:   r.Depth,
		})
	}
	for _, c := range result.Marked {
		out.Marked = append(out.Marked, MarkedEntries{Table: c.Table.String(), EntryIDs: c.EntryIDs})
	}
	for _, d := range result.Outcome.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, diagnosticEntry(d))
	}
	return out
}

func diagnosticEntry(d engine.Diagnostic) DiagnosticEntry {
	return DiagnosticEntry{
		Severity:  string(d.Severity),
		Condition: string(d.Condition),
		Table:     d.Table.String(),
		Message:   d.Message,
	}
}

// TableListHandler lists one page of world tables.
func TableListHandler(svc TableService) mcp.ToolHandlerFor[TableListInput, TableListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TableListInput) (*mcp.CallToolResult, TableListResult, error) {
		page, err := svc.ListTables(ctx, service.ListRequest{
			Filter:    input.Filter,
			PageSize:  input.PageSize,
			PageToken: input.PageToken,
		})
		if err != nil {
			return nil, TableListResult{}, toolError(err, "")
		}
		out := TableListResult{Tables: make([]TableSummary, 0, len(page.Tables)), NextPageToken: page.NextPageToken}
		for _, t := range page.Tables {
			out.Tables = append(out.Tables, summarize(t))
		}
		return nil, out, nil
	}
}

// TableGetHandler returns one table.
func TableGetHandler(svc TableService) mcp.ToolHandlerFor[TableRefInput, TableDetail] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TableRefInput) (*mcp.CallToolResult, TableDetail, error) {
		table, err := svc.GetTable(ctx, tables.Reference{Pack: input.Pack, TableID: input.TableID})
		if err != nil {
			return nil, TableDetail{}, toolError(err, "")
		}
		return nil, detail(table), nil
	}
}

// TableResetHandler clears the drawn flags of a world table.
func TableResetHandler(svc TableService, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[TableRefInput, TableDetail] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TableRefInput) (*mcp.CallToolResult, TableDetail, error) {
		table, err := svc.ResetTable(ctx, tables.Reference{Pack: input.Pack, TableID: input.TableID})
		if err != nil {
			return nil, TableDetail{}, toolError(err, "")
		}
		if notify != nil {
			notify(ctx, TableListURI)
		}
		return nil, detail(table), nil
	}
}

// TableSetKindHandler switches a world table between standard and treasure.
func TableSetKindHandler(svc TableService, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[TableSetKindInput, TableDetail] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TableSetKindInput) (*mcp.CallToolResult, TableDetail, error) {
		kind, err := tables.ParseKind(input.Kind)
		if err != nil || strings.TrimSpace(input.Kind) == "" {
			return nil, TableDetail{}, fmt.Errorf("%s: kind must be standard or treasure", apperrors.CodeTableKindInvalid)
		}
		table, err := svc.SetKind(ctx, tables.Reference{TableID: input.TableID}, kind)
		if err != nil {
			return nil, TableDetail{}, toolError(err, "")
		}
		if notify != nil {
			notify(ctx, TableListURI)
		}
		return nil, detail(table), nil
	}
}

// TableListPayload is the body of the table list resource.
type TableListPayload struct {
	Tables []TableSummary `json:"tables"`
	Packs  []string       `json:"packs"`
}

// TableListResourceHandler renders the first page of world tables and the
// pack names.
func TableListResourceHandler(svc TableService) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if svc == nil {
			return nil, fmt.Errorf("table service is not configured")
		}
		uri := TableListURI
		if req != nil && req.Params != nil && req.Params.URI != "" {
			uri = req.Params.URI
		}
		if uri != TableListURI {
			return nil, mcp.ResourceNotFoundError(uri)
		}

		page, err := svc.ListTables(ctx, service.ListRequest{PageSize: resourcePageSize})
		if err != nil {
			return nil, fmt.Errorf("table list failed: %w", err)
		}
		packs, err := svc.ListPacks(ctx)
		if err != nil {
			return nil, fmt.Errorf("pack list failed: %w", err)
		}

		payload := TableListPayload{Tables: make([]TableSummary, 0, len(page.Tables)), Packs: packs}
		for _, t := range page.Tables {
			payload.Tables = append(payload.Tables, summarize(t))
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal table list: %w", err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/json",
					Text:     string(data),
				},
			},
		}, nil
	}
}

func summarize(t tables.Table) TableSummary {
	return TableSummary{
		ID:          t.ID,
		Name:        t.Name,
		Kind:        string(t.Kind),
		Formula:     t.Formula,
		Replacement: t.Replacement,
		Entries:     len(t.Entries),
		Remaining:   len(t.Eligible()),
	}
}

func detail(t tables.Table) TableDetail {
	out := TableDetail{
		TableSummary: summarize(t),
		Pack:         t.Pack,
		Rows:         make([]TableEntry, 0, len(t.Entries)),
	}
	for _, e := range t.Entries {
		row := TableEntry{
			ID:     e.ID,
			Text:   e.Text,
			Low:    e.Range.Low,
			High:   e.Range.High,
			Weight: e.Weight,
			Drawn:  e.Drawn,
		}
		if e.IsReference() {
			row.Reference = e.Reference.String()
		}
		out.Rows = append(out.Rows, row)
	}
	out.Summary = fmt.Sprintf("%s (%s, %s): %d of %d entries remaining", t.Name, t.Kind, domainMode(t), out.Remaining, out.Entries)
	return out
}

func domainMode(t tables.Table) string {
	return tables.SelectorFor(t).String()
}

// toolError prefixes the error code so agents can branch on it.
func toolError(err error, locale string) error {
	code := apperrors.GetCode(err)
	if code == apperrors.CodeUnknown {
		return err
	}
	return fmt.Errorf("%s: %s", code, apperrors.LocalizedMessage(err, locale))
}
