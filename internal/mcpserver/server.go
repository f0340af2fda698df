// Package mcpserver exposes the expense operations as Model Context Protocol
// tools, plus the category catalog as a resource.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

const (
	ServerName = "ExpenseTracker"

	// CategoriesURI addresses the category catalog resource.
	CategoriesURI = "expense://categories"
)

// Service is the set of operations the tools call.
type Service interface {
	AddExpense(ctx context.Context, e core.Expense) (int64, error)
	ListExpenses(ctx context.Context, startDate, endDate string) ([]core.Expense, error)
	DeleteExpense(ctx context.Context, id int64) (int64, error)
	UpdateExpense(ctx context.Context, id int64, u core.ExpenseUpdate) (int64, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	FilterExpenses(ctx context.Context, f core.Filter) ([]core.Expense, error)
	Summarize(ctx context.Context, startDate, endDate, category string) ([]core.CategoryTotal, error)
	Categories(ctx context.Context) ([]byte, error)
}

type Handlers struct {
	svc    Service
	logger *log.Logger
}

func NewHandlers(svc Service, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.Default(log.ComponentMCP)
	}
	return &Handlers{svc: svc, logger: logger}
}

// NewServer registers every tool and the categories resource.
func NewServer(svc Service, version string, logger *log.Logger) *server.MCPServer {
	h := NewHandlers(svc, logger)

	s := server.NewMCPServer(ServerName, version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool(log.OpAdd,
		mcp.WithDescription("Add a new expense entry to the database."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Expense date, YYYY-MM-DD")),
		mcp.WithNumber("amount", mcp.Required(), mcp.Description("Amount spent")),
		mcp.WithString("category", mcp.Required(), mcp.Description("Expense category")),
		mcp.WithString("subcategory", mcp.Description("Optional subcategory")),
		mcp.WithString("note", mcp.Description("Optional free-form note")),
	), h.AddExpense)

	s.AddTool(mcp.NewTool(log.OpList,
		mcp.WithDescription("List expense entries within an inclusive date range."),
		mcp.WithString("start_date", mcp.Required(), mcp.Description("First date, YYYY-MM-DD")),
		mcp.WithString("end_date", mcp.Required(), mcp.Description("Last date, YYYY-MM-DD")),
	), h.ListExpenses)

	s.AddTool(mcp.NewTool(log.OpDelete,
		mcp.WithDescription("Delete an expense entry by its id."),
		mcp.WithNumber("expense_id", mcp.Required(), mcp.Description("Id of the expense")),
	), h.DeleteExpense)

	s.AddTool(mcp.NewTool(log.OpUpdate,
		mcp.WithDescription("Update fields of an existing expense. Only supplied fields change."),
		mcp.WithNumber("expense_id", mcp.Required(), mcp.Description("Id of the expense")),
		mcp.WithString("date", mcp.Description("New date")),
		mcp.WithNumber("amount", mcp.Description("New amount")),
		mcp.WithString("category", mcp.Description("New category")),
		mcp.WithString("subcategory", mcp.Description("New subcategory")),
		mcp.WithString("note", mcp.Description("New note")),
	), h.UpdateExpense)

	s.AddTool(mcp.NewTool(log.OpGet,
		mcp.WithDescription("Get a single expense entry by its id."),
		mcp.WithNumber("expense_id", mcp.Required(), mcp.Description("Id of the expense")),
	), h.GetExpense)

	s.AddTool(mcp.NewTool(log.OpFilter,
		mcp.WithDescription("Filter expenses by category and/or subcategory."),
		mcp.WithString("category", mcp.Description("Category to match")),
		mcp.WithString("subcategory", mcp.Description("Subcategory to match")),
	), h.FilterExpenses)

	s.AddTool(mcp.NewTool(log.OpSummarize,
		mcp.WithDescription("Summarize expenses by category within an inclusive date range."),
		mcp.WithString("start_date", mcp.Required(), mcp.Description("First date, YYYY-MM-DD")),
		mcp.WithString("end_date", mcp.Required(), mcp.Description("Last date, YYYY-MM-DD")),
		mcp.WithString("category", mcp.Description("Restrict the summary to one category")),
	), h.Summarize)

	s.AddResource(mcp.NewResource(CategoriesURI, log.OpCategories,
		mcp.WithResourceDescription("Expense categories and their subcategories."),
		mcp.WithMIMEType("application/json"),
	), h.Categories)

	return s
}

func (h *Handlers) AddExpense(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	amount, err := req.RequireFloat("amount")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	category, err := req.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id, err := h.svc.AddExpense(ctx, core.Expense{
		Date:        date,
		Amount:      amount,
		Category:    category,
		Subcategory: req.GetString("subcategory", ""),
		Note:        req.GetString("note", ""),
	})
	if err != nil {
		return h.fail(ctx, log.OpAdd, err)
	}
	return jsonResult(core.AddResult{Status: core.StatusOK, ID: id})
}

func (h *Handlers) ListExpenses(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := requireRange(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	expenses, err := h.svc.ListExpenses(ctx, start, end)
	if err != nil {
		return h.fail(ctx, log.OpList, err)
	}
	return jsonResult(expenses)
}

func (h *Handlers) DeleteExpense(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := h.svc.DeleteExpense(ctx, id)
	if err != nil {
		return h.fail(ctx, log.OpDelete, err)
	}
	return jsonResult(core.DeleteResult{Status: core.StatusOK, Deleted: n})
}

func (h *Handlers) UpdateExpense(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	update, err := parseUpdate(req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := h.svc.UpdateExpense(ctx, id, update)
	if err != nil {
		return h.fail(ctx, log.OpUpdate, err)
	}
	return jsonResult(core.UpdateResult{Status: core.StatusOK, Updated: n})
}

func (h *Handlers) GetExpense(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	expense, err := h.svc.GetExpense(ctx, id)
	if err != nil {
		return h.fail(ctx, log.OpGet, err)
	}
	return jsonResult(expense)
}

func (h *Handlers) FilterExpenses(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expenses, err := h.svc.FilterExpenses(ctx, core.Filter{
		Category:    req.GetString("category", ""),
		Subcategory: req.GetString("subcategory", ""),
	})
	if err != nil {
		return h.fail(ctx, log.OpFilter, err)
	}
	return jsonResult(expenses)
}

func (h *Handlers) Summarize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := requireRange(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	totals, err := h.svc.Summarize(ctx, start, end, req.GetString("category", ""))
	if err != nil {
		return h.fail(ctx, log.OpSummarize, err)
	}
	return jsonResult(totals)
}

// Categories returns the catalog document verbatim.
func (h *Handlers) Categories(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	doc, err := h.svc.Categories(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Categories read failed", log.FieldError, err)
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      CategoriesURI,
			MIMEType: "application/json",
			Text:     string(doc),
		},
	}, nil
}

// fail turns expected outcomes into a {status:"error"} payload and lets
// anything else surface as a protocol error.
func (h *Handlers) fail(ctx context.Context, op string, err error) (*mcp.CallToolResult, error) {
	if core.IsExpected(err) {
		return jsonResult(core.NewErrorResult(err))
	}
	h.logger.ErrorContext(ctx, "Tool failed", log.FieldOperation, op, log.FieldError, err)
	return nil, fmt.Errorf("%s: %w", op, err)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func requireRange(req mcp.CallToolRequest) (string, string, error) {
	start, err := req.RequireString("start_date")
	if err != nil {
		return "", "", err
	}
	end, err := req.RequireString("end_date")
	if err != nil {
		return "", "", err
	}
	return start, end, nil
}

func requireID(req mcp.CallToolRequest) (int64, error) {
	raw, err := req.RequireFloat("expense_id")
	if err != nil {
		return 0, err
	}
	if raw != math.Trunc(raw) || math.Abs(raw) > 1<<53 {
		return 0, fmt.Errorf("expense_id must be an integer, got %v", raw)
	}
	return int64(raw), nil
}

// parseUpdate builds an update from the arguments that are present and
// non-null. The update policy is applied later by the service.
func parseUpdate(args map[string]any) (core.ExpenseUpdate, error) {
	var u core.ExpenseUpdate
	var err error
	if u.Date, err = optionalString(args, "date"); err != nil {
		return u, err
	}
	if u.Category, err = optionalString(args, "category"); err != nil {
		return u, err
	}
	if u.Subcategory, err = optionalString(args, "subcategory"); err != nil {
		return u, err
	}
	if u.Note, err = optionalString(args, "note"); err != nil {
		return u, err
	}
	if v, ok := args["amount"]; ok && v != nil {
		amount, ok := v.(float64)
		if !ok {
			return u, fmt.Errorf("argument %q must be a number", "amount")
		}
		u.Amount = core.Some(amount)
	}
	return u, nil
}

func optionalString(args map[string]any, key string) (core.Optional[string], error) {
	v, ok := args[key]
	if !ok || v == nil {
		return core.Optional[string]{}, nil
	}
	s, ok := v.(string)
	if !ok {
		return core.Optional[string]{}, fmt.Errorf("argument %q must be a string", key)
	}
	return core.Some(s), nil
}
