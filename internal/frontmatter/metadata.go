package frontmatter

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/docmodel"
)

// Recognised front matter keys.
const (
	KeyTitle  = "title"
	KeyMenu   = "menu"
	KeyWeight = "weight"
)

// Metadata is the interpreted front matter of a document.
type Metadata struct {
	Format Format
	// Raw is the undecoded block without delimiters.
	Raw    []byte
	Title  string
	Menus  []docmodel.MenuRef
	Weight int
	// Extra holds keys that are preserved but not interpreted.
	Extra map[string]any
}

// Parse splits content and interprets its front matter.
//
// A document without front matter yields zero Metadata (weight 0, no menu)
// and the whole input as body.
func Parse(content []byte) (Metadata, []byte, error) {
	raw, body, format, _, err := Split(content)
	if err != nil {
		return Metadata{}, nil, err
	}
	if format == FormatNone {
		return Metadata{Extra: map[string]any{}}, body, nil
	}

	fields, err := ParseFields(raw, format)
	if err != nil {
		return Metadata{}, nil, err
	}
	meta, err := Decode(fields)
	if err != nil {
		return Metadata{}, nil, err
	}
	meta.Format = format
	meta.Raw = raw
	return meta, body, nil
}

// Decode interprets recognised keys of a decoded front matter map.
func Decode(fields map[string]any) (Metadata, error) {
	meta := Metadata{Extra: map[string]any{}}
	for k, v := range fields {
		switch k {
		case KeyTitle:
			if v != nil {
				meta.Title = strings.TrimSpace(fmt.Sprint(v))
			}
		case KeyWeight:
			w, err := toInt(v)
			if err != nil {
				return Metadata{}, fmt.Errorf("%w: weight: %w", ErrInvalidFrontMatter, err)
			}
			meta.Weight = w
		case KeyMenu:
			menus, err := decodeMenus(v)
			if err != nil {
				return Metadata{}, fmt.Errorf("%w: menu: %w", ErrInvalidFrontMatter, err)
			}
			meta.Menus = menus
		default:
			meta.Extra[k] = v
		}
	}
	return meta, nil
}

// decodeMenus accepts the three shapes a menu key may take:
//
//	menu: docs_intro
//	menu: [docs_intro, main]
//	menu: { docs_intro: { name: Intro, weight: 5 } }
func decodeMenus(v any) ([]docmodel.MenuRef, error) {
	switch vv := v.(type) {
	case nil:
		return nil, nil
	case string:
		id := strings.TrimSpace(vv)
		if id == "" {
			return nil, nil
		}
		return []docmodel.MenuRef{docmodel.Simple(id)}, nil
	case []any:
		refs := make([]docmodel.MenuRef, 0, len(vv))
		for _, item := range vv {
			id, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("list entries must be identifiers, got %T", item)
			}
			if id = strings.TrimSpace(id); id != "" {
				refs = append(refs, docmodel.Simple(id))
			}
		}
		return refs, nil
	case map[string]any:
		ids := make([]string, 0, len(vv))
		for id := range vv {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		refs := make([]docmodel.MenuRef, 0, len(ids))
		for _, id := range ids {
			ref, err := decodeMenuEntry(strings.TrimSpace(id), vv[id])
			if err != nil {
				return nil, err
			}
			if ref.Menu != "" {
				refs = append(refs, ref)
			}
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("unsupported value of type %T", v)
	}
}

func decodeMenuEntry(id string, v any) (docmodel.MenuRef, error) {
	ref := docmodel.Simple(id)
	if v == nil {
		return ref, nil
	}
	opts, ok := v.(map[string]any)
	if !ok {
		return docmodel.MenuRef{}, fmt.Errorf("%s: expected a mapping, got %T", id, v)
	}
	if name, ok := opts["name"]; ok && name != nil {
		ref.Name = strings.TrimSpace(fmt.Sprint(name))
	}
	if raw, ok := opts["weight"]; ok {
		w, err := toInt(raw)
		if err != nil {
			return docmodel.MenuRef{}, fmt.Errorf("%s: weight: %w", id, err)
		}
		ref.Weight = &w
	}
	return ref, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("unsupported value of type %T", v)
	}
}
