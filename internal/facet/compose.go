package facet

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format of creation date bounds.
const DateLayout = "2006-01-02"

// Paging holds pagination and sort options carried alongside the filters.
type Paging struct {
	Page     int    `json:"p,omitempty"`
	PageSize int    `json:"ps,omitempty"`
	Sort     string `json:"s,omitempty"`
	Asc      bool   `json:"asc,omitempty"`
}

// Query is the flattened, serializable projection of a Selection that is
// sent to a results provider. Multi-valued fields are sorted and free of
// duplicates; unset fields are empty and omitted from every encoding.
type Query struct {
	Types        []string `json:"types,omitempty"`
	Severities   []string `json:"severities,omitempty"`
	Scopes       []string `json:"scopes,omitempty"`
	Resolutions  []string `json:"resolutions,omitempty"`
	Statuses     []string `json:"statuses,omitempty"`
	Rules        []string `json:"rules,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Projects     []string `json:"projects,omitempty"`
	Assignees    []string `json:"assignees,omitempty"`
	Authors      []string `json:"author,omitempty"`
	Languages    []string `json:"languages,omitempty"`
	CodeVariants []string `json:"codeVariants,omitempty"`

	OWASPTop10_2021 []string `json:"owaspTop10-2021,omitempty"`

	// Inclusive creation date bounds in DateLayout.
	CreatedAfter  string `json:"createdAfter,omitempty"`
	CreatedBefore string `json:"createdBefore,omitempty"`

	InNewCodePeriod bool `json:"inNewCodePeriod,omitempty"`
	AssignedToMe    bool `json:"assignedToMe,omitempty"`

	Paging
}

// Compose projects sel into a Query. The result depends only on the
// constraints in sel, never on the order in which they were applied.
func Compose(sel Selection) Query {
	var q Query
	for _, d := range sel.Dimensions() {
		e := sel.m[d]
		switch d.Kind() {
		case Multi:
			*q.multi(d) = normalize(slices.Clone(e.values))
		case Date:
			*q.date(d) = e.date.Format(DateLayout)
		case Flag:
			*q.flag(d) = e.on
		}
	}
	return q
}

// Decompose rebuilds the Selection a Query was composed from.
// Paging is not part of a selection and is ignored.
func Decompose(q Query) (Selection, error) {
	var sel Selection
	var err error
	for _, d := range All() {
		switch d.Kind() {
		case Multi:
			for _, v := range *q.multi(d) {
				if !slices.Contains(sel.m[d].values, v) {
					if sel, err = sel.Toggle(d, v); err != nil {
						return Selection{}, err
					}
				}
			}
		case Date:
			s := *q.date(d)
			if s == "" {
				continue
			}
			t, perr := time.Parse(DateLayout, s)
			if perr != nil {
				return Selection{}, fmt.Errorf("%s: %w", d.Param(), perr)
			}
			if sel, err = sel.SetDate(d, t); err != nil {
				return Selection{}, err
			}
		case Flag:
			if sel, err = sel.SetFlag(d, *q.flag(d)); err != nil {
				return Selection{}, err
			}
		}
	}
	return sel, nil
}

// Multi returns the values constrained for a Multi dimension.
func (q Query) Multi(d Dimension) []string {
	if d.Kind() != Multi {
		return nil
	}
	return *q.multi(d)
}

// Filters returns q without paging options.
func (q Query) Filters() Query {
	q.Paging = Paging{}
	return q
}

// Without returns q with the constraint on d removed. Providers use it to
// compute facet counts that ignore the facet's own selection.
func (q Query) Without(d Dimension) Query {
	switch d.Kind() {
	case Multi:
		*q.multi(d) = nil
	case Date:
		*q.date(d) = ""
	case Flag:
		*q.flag(d) = false
	}
	return q
}

// Equal reports whether q and o describe the same request.
func (q Query) Equal(o Query) bool {
	for _, d := range MultiValued() {
		if !slices.Equal(q.Multi(d), o.Multi(d)) {
			return false
		}
	}
	return q.CreatedAfter == o.CreatedAfter && q.CreatedBefore == o.CreatedBefore &&
		q.InNewCodePeriod == o.InNewCodePeriod && q.AssignedToMe == o.AssignedToMe &&
		q.Paging == o.Paging
}

// Values encodes q as URL query parameters. Each member of a multi-valued
// constraint is its own parameter, so values may contain commas.
func (q Query) Values() url.Values {
	v := url.Values{}
	for _, d := range All() {
		switch d.Kind() {
		case Multi:
			for _, val := range *q.multi(d) {
				v.Add(d.Param(), val)
			}
		case Date:
			if s := *q.date(d); s != "" {
				v.Set(d.Param(), s)
			}
		case Flag:
			if *q.flag(d) {
				v.Set(d.Param(), "true")
			}
		}
	}
	if q.Page > 0 {
		v.Set("p", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("ps", strconv.Itoa(q.PageSize))
	}
	if q.Sort != "" {
		v.Set("s", q.Sort)
		v.Set("asc", strconv.FormatBool(q.Asc))
	}
	return v
}

// Params is the JSON form of Values: lists for multi-valued constraints,
// strings for everything else. Lists are []any so the map can be handed
// to structpb.NewStruct as is.
func (q Query) Params() map[string]any {
	out := map[string]any{}
	for k, vals := range q.Values() {
		if d, err := ParseDimension(k); err == nil && d.Kind() == Multi {
			list := make([]any, len(vals))
			for i, s := range vals {
				list[i] = s
			}
			out[k] = list
			continue
		}
		out[k] = vals[0]
	}
	return out
}

// ParseValues decodes URL query parameters produced by Query.Values.
// Repeated parameters are taken verbatim. For enumerated dimensions a
// hand-written comma list such as "types=BUG,CODE_SMELL" is split too.
// Lists are re-normalized so any member order composes to the same Query.
func ParseValues(v url.Values) (Query, error) {
	var q Query
	for _, d := range All() {
		if d.Kind() == Multi {
			if vals := multiParam(d, v[d.Param()]); len(vals) > 0 {
				*q.multi(d) = normalize(vals)
			}
			continue
		}
		raw := v.Get(d.Param())
		if raw == "" {
			continue
		}
		switch d.Kind() {
		case Date:
			if _, err := time.Parse(DateLayout, raw); err != nil {
				return Query{}, fmt.Errorf("%s: %w", d.Param(), err)
			}
			*q.date(d) = raw
		case Flag:
			on, err := strconv.ParseBool(raw)
			if err != nil {
				return Query{}, fmt.Errorf("%s: %w", d.Param(), err)
			}
			*q.flag(d) = on
		}
	}
	var err error
	if q.Page, err = intParam(v, "p"); err != nil {
		return Query{}, err
	}
	if q.PageSize, err = intParam(v, "ps"); err != nil {
		return Query{}, err
	}
	q.Sort = v.Get("s")
	if s := v.Get("asc"); s != "" {
		if q.Asc, err = strconv.ParseBool(s); err != nil {
			return Query{}, fmt.Errorf("asc: %w", err)
		}
	}
	return q, nil
}

// multiParam collects the members of a multi-valued parameter, dropping
// empty entries. Only a comma list is trimmed; single members are verbatim.
func multiParam(d Dimension, raw []string) []string {
	var vals []string
	for _, r := range raw {
		if !byName[d].enumerated || !strings.Contains(r, ",") {
			if r != "" {
				vals = append(vals, r)
			}
			continue
		}
		for _, s := range strings.Split(r, ",") {
			if s = strings.TrimSpace(s); s != "" {
				vals = append(vals, s)
			}
		}
	}
	return vals
}

func intParam(v url.Values, key string) (int, error) {
	s := v.Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: invalid value %q", key, s)
	}
	return n, nil
}

func (q *Query) multi(d Dimension) *[]string {
	switch d {
	case Type:
		return &q.Types
	case Severity:
		return &q.Severities
	case Scope:
		return &q.Scopes
	case Resolution:
		return &q.Resolutions
	case Status:
		return &q.Statuses
	case Rule:
		return &q.Rules
	case Tag:
		return &q.Tags
	case Project:
		return &q.Projects
	case Assignee:
		return &q.Assignees
	case Author:
		return &q.Authors
	case Language:
		return &q.Languages
	case CodeVariant:
		return &q.CodeVariants
	case OWASPTop10_2021:
		return &q.OWASPTop10_2021
	}
	panic("facet: not a multi-valued dimension: " + string(d))
}

func (q *Query) date(d Dimension) *string {
	switch d {
	case CreationDateFrom:
		return &q.CreatedAfter
	case CreationDateTo:
		return &q.CreatedBefore
	}
	panic("facet: not a date dimension: " + string(d))
}

func (q *Query) flag(d Dimension) *bool {
	switch d {
	case OnlyNewCode:
		return &q.InNewCodePeriod
	case OnlyMine:
		return &q.AssignedToMe
	}
	panic("facet: not a flag dimension: " + string(d))
}
