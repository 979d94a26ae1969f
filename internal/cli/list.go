package cli

import (
	"context"
	"fmt"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/jaekwang-park/todo-console/internal/model"
	"github.com/jaekwang-park/todo-console/internal/view"
)

// listFlags are the query flags shared by the list commands.
type listFlags struct {
	page    int
	limit   int
	search  string
	sortBy  string
	order   string
	filters map[string]*string
}

func newListFlags(cmd *cobra.Command, filters ...string) *listFlags {
	f := &listFlags{filters: make(map[string]*string, len(filters))}
	cmd.Flags().IntVar(&f.page, "page", 1, "Page number (1-based)")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Page size (default $PAGE_SIZE)")
	cmd.Flags().StringVar(&f.search, "search", "", "Search text")
	cmd.Flags().StringVar(&f.sortBy, "sort", "", "Sort field")
	cmd.Flags().StringVar(&f.order, "order", string(model.SortAsc), "Sort order (asc|desc)")
	for _, name := range filters {
		v := new(string)
		f.filters[name] = v
		cmd.Flags().StringVar(v, flagName(name), "", "Filter by "+name)
	}
	return f
}

// flagName turns a query parameter such as dueDate into due-date.
func flagName(param string) string {
	out := make([]rune, 0, len(param)+2)
	for _, r := range param {
		if unicode.IsUpper(r) {
			out = append(out, '-', unicode.ToLower(r))
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

// listPage applies the flags to ctrl, loads the page and returns it.
func listPage[T view.Entity, F any](ctx context.Context, ctrl *view.Controller[T, F], f *listFlags) (model.Page[T], error) {
	if f.limit > model.MaxPageSize {
		return model.Page[T]{}, fmt.Errorf("--limit must be at most %d", model.MaxPageSize)
	}
	if f.limit > 0 {
		ctrl.SetPageSize(f.limit)
	}
	ctrl.SetSearch(f.search)
	ctrl.SetSort(f.sortBy, model.SortOrder(f.order))
	for name, v := range f.filters {
		ctrl.SetFilter(name, *v)
	}
	ctrl.SetPageIndex(f.page - 1)

	if err := ctrl.Load(ctx); err != nil {
		return model.Page[T]{}, err
	}
	state := ctrl.View()
	rows := state.Rows
	if rows == nil {
		rows = []T{}
	}
	return model.Page[T]{
		Items:     rows,
		Total:     state.Total,
		Page:      state.Query.PageIndex + 1,
		PageCount: state.PageCount,
	}, nil
}
