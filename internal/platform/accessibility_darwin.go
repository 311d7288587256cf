//go:build darwin

package platform

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework ApplicationServices

#include <Cocoa/Cocoa.h>
#include <ApplicationServices/ApplicationServices.h>
#include <stdlib.h>

static id axAttr(AXUIElementRef el, CFStringRef attr) {
    CFTypeRef value = NULL;
    if (AXUIElementCopyAttributeValue(el, attr, &value) != kAXErrorSuccess || value == NULL) {
        return nil;
    }
    return (__bridge_transfer id)value;
}

static void putIfPresent(NSMutableDictionary *dict, NSString *key, AXUIElementRef el, CFStringRef attr) {
    id v = axAttr(el, attr);
    if (v == nil) {
        return;
    }
    if ([v isKindOfClass:[NSString class]] || [v isKindOfClass:[NSNumber class]]) {
        dict[key] = v;
    }
}

// getFocusedElementJSON mines the recognized AX attribute set (spec §6.3)
// off the focused element of the frontmost window of pid, returning a flat
// JSON object. Missing attributes are simply absent keys, never an error:
// AX reports an attribute as unsupported far more often than it reports one
// present-but-empty.
static char* getFocusedElementJSON(int pid) {
    AXUIElementRef appEl = AXUIElementCreateApplication(pid);
    if (appEl == NULL) {
        return strdup("{}");
    }

    AXUIElementRef focused = NULL;
    AXError err = AXUIElementCopyAttributeValue(appEl, kAXFocusedUIElementAttribute, (CFTypeRef*)&focused);
    if (err != kAXErrorSuccess || focused == NULL) {
        CFRelease(appEl);
        return strdup("{}");
    }

    NSMutableDictionary *dict = [NSMutableDictionary dictionary];
    putIfPresent(dict, @"role", focused, kAXRoleAttribute);
    putIfPresent(dict, @"role_description", focused, kAXRoleDescriptionAttribute);
    putIfPresent(dict, @"subrole", focused, kAXSubroleAttribute);
    putIfPresent(dict, @"title", focused, kAXTitleAttribute);
    putIfPresent(dict, @"description", focused, kAXDescriptionAttribute);
    putIfPresent(dict, @"value", focused, kAXValueAttribute);
    putIfPresent(dict, @"help", focused, kAXHelpAttribute);
    putIfPresent(dict, @"url", focused, CFSTR("AXURL"));
    putIfPresent(dict, @"document", focused, CFSTR("AXDocument"));
    putIfPresent(dict, @"filename", focused, CFSTR("AXFilename"));
    putIfPresent(dict, @"path", focused, CFSTR("AXPath"));
    putIfPresent(dict, @"identifier", focused, CFSTR("AXIdentifier"));
    putIfPresent(dict, @"placeholder_value", focused, CFSTR("AXPlaceholderValue"));
    putIfPresent(dict, @"selected_text", focused, kAXSelectedTextAttribute);
    putIfPresent(dict, @"number_of_characters", focused, kAXNumberOfCharactersAttribute);
    putIfPresent(dict, @"row_count", focused, CFSTR("AXRowCount"));
    putIfPresent(dict, @"column_count", focused, CFSTR("AXColumnCount"));
    putIfPresent(dict, @"index", focused, CFSTR("AXIndex"));
    putIfPresent(dict, @"disclosure_level", focused, CFSTR("AXDisclosureLevel"));
    putIfPresent(dict, @"sort_direction", focused, CFSTR("AXSortDirection"));
    putIfPresent(dict, @"access_key", focused, CFSTR("AXAccessKey"));
    putIfPresent(dict, @"aria_label", focused, CFSTR("AXARIALabel"));
    putIfPresent(dict, @"enabled", focused, kAXEnabledAttribute);
    putIfPresent(dict, @"focused", focused, kAXFocusedAttribute);
    putIfPresent(dict, @"selected", focused, CFSTR("AXSelected"));
    putIfPresent(dict, @"expanded", focused, CFSTR("AXExpanded"));

    // Breadcrumb: walk kAXParentAttribute up to the window, recording role+title.
    NSMutableArray *crumbs = [NSMutableArray array];
    AXUIElementRef cur = focused;
    CFRetain(cur);
    for (int i = 0; i < 12 && cur != NULL; i++) {
        id role = axAttr(cur, kAXRoleAttribute);
        id title = axAttr(cur, kAXTitleAttribute);
        if (role != nil) {
            BOOL hasTitle = [title isKindOfClass:[NSString class]] && [(NSString*)title length] > 0;
            [crumbs addObject:@{@"role": role, @"title": hasTitle ? title : role}];
        }
        AXUIElementRef parent = NULL;
        AXError perr = AXUIElementCopyAttributeValue(cur, kAXParentAttribute, (CFTypeRef*)&parent);
        CFRelease(cur);
        if (perr != kAXErrorSuccess || parent == NULL) {
            break;
        }
        cur = parent;
        if (role != nil && [role isKindOfClass:[NSString class]] && [(NSString*)role isEqualToString:@"AXWindow"]) {
            CFRelease(cur);
            break;
        }
    }
    dict[@"breadcrumb"] = crumbs;

    CFRelease(focused);
    CFRelease(appEl);

    NSError *jsonErr = nil;
    NSData *data = [NSJSONSerialization dataWithJSONObject:dict options:0 error:&jsonErr];
    if (data == nil) {
        return strdup("{}");
    }
    NSString *json = [[NSString alloc] initWithData:data encoding:NSUTF8StringEncoding];
    return strdup([json UTF8String]);
}
*/
import "C"
import (
	"context"
	"encoding/json"
	"fmt"
	"unsafe"

	"github.com/open-runtime/contextfusion/internal/cferrors"
	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

// AccessibilityAdapter queries the AX focused-element attribute set on
// demand (A.3). Unlike the notification-driven adapters it has no
// independent loop: the extractor calls Query per pid inside its own
// deadline.
type AccessibilityAdapter struct{}

func NewAccessibilityAdapter() *AccessibilityAdapter { return &AccessibilityAdapter{} }

func (a *AccessibilityAdapter) Name() string { return AdapterAccessibility }

func (a *AccessibilityAdapter) Start(ctx context.Context) (<-chan Observation, error) {
	// No background loop; Query is called synchronously by the extractor.
	return make(chan Observation), nil
}

func (a *AccessibilityAdapter) Stop() error { return nil }

type rawFocus struct {
	Role                string                       `json:"role"`
	RoleDescription     string                       `json:"role_description"`
	Subrole             string                       `json:"subrole"`
	Title               string                       `json:"title"`
	Description         string                       `json:"description"`
	Value               string                       `json:"value"`
	Help                string                       `json:"help"`
	URL                 string                       `json:"url"`
	Document            string                       `json:"document"`
	Filename            string                       `json:"filename"`
	Path                string                       `json:"path"`
	Identifier          string                       `json:"identifier"`
	PlaceholderValue    string                       `json:"placeholder_value"`
	SelectedText        string                       `json:"selected_text"`
	NumberOfCharacters  json.Number                  `json:"number_of_characters"`
	RowCount            json.Number                  `json:"row_count"`
	ColumnCount         json.Number                  `json:"column_count"`
	Index               json.Number                  `json:"index"`
	DisclosureLevel     json.Number                  `json:"disclosure_level"`
	SortDirection       string                       `json:"sort_direction"`
	AccessKey           string                       `json:"access_key"`
	ARIALabel           string                       `json:"aria_label"`
	Enabled             *bool                        `json:"enabled"`
	Focused             *bool                        `json:"focused"`
	Selected            *bool                        `json:"selected"`
	Expanded            *bool                        `json:"expanded"`
	Breadcrumb          []contextmodel.Breadcrumb    `json:"breadcrumb"`
}

// Query mines the focused element of pid's frontmost window. Absent fields
// in the AX response become absent fields in FocusedElement, never zero
// values standing in for "observed as empty".
func (a *AccessibilityAdapter) Query(ctx context.Context, pid int32) (*contextmodel.FocusedElement, []contextmodel.Breadcrumb, error) {
	select {
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("%w: accessibility query", cferrors.ErrSourceTimeout)
	default:
	}

	cStr := C.getFocusedElementJSON(C.int(pid))
	defer C.free(unsafe.Pointer(cStr))

	var raw rawFocus
	if err := json.Unmarshal([]byte(C.GoString(cStr)), &raw); err != nil {
		return nil, nil, fmt.Errorf("parse accessibility json: %w", err)
	}

	fe := &contextmodel.FocusedElement{
		Role:             raw.Role,
		RoleDescription:  raw.RoleDescription,
		Subrole:          raw.Subrole,
		Title:            raw.Title,
		Description:      raw.Description,
		Value:            raw.Value,
		Help:             raw.Help,
		URL:              raw.URL,
		Document:         raw.Document,
		Filename:         raw.Filename,
		Path:             raw.Path,
		Identifier:       raw.Identifier,
		PlaceholderValue: raw.PlaceholderValue,
		SelectedText:     raw.SelectedText,
		SortDirection:    raw.SortDirection,
		AccessKey:        raw.AccessKey,
		ARIALabel:        raw.ARIALabel,
		Enabled:          raw.Enabled,
		Focused:          raw.Focused,
		Selected:         raw.Selected,
		Expanded:         raw.Expanded,
	}
	fe.NumberOfCharacters = numberPtr(raw.NumberOfCharacters)
	fe.RowCount = numberPtr(raw.RowCount)
	fe.ColumnCount = numberPtr(raw.ColumnCount)
	fe.Index = numberPtr(raw.Index)
	fe.DisclosureLevel = numberPtr(raw.DisclosureLevel)

	return fe, raw.Breadcrumb, nil
}

func numberPtr(n json.Number) *int {
	if n == "" {
		return nil
	}
	v, err := n.Int64()
	if err != nil {
		return nil
	}
	iv := int(v)
	return &iv
}
