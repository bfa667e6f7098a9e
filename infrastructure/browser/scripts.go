package browser

import (
	"fmt"
	"strings"
)

// Element scripts take the element as first argument and an optional value as second.
// Every driver wraps them in its own calling convention.
const (
	jsClosest   = `(el, sel) => el.closest(sel) !== null`
	jsClassName = `(el) => el.getAttribute('class') || ''`
	jsAttribute = `(el, name) => el.hasAttribute(name) ? [el.getAttribute(name)] : []`
	jsText      = `(el) => el.textContent || ''`
	jsVisible   = `(el) => {
		if (!el.isConnected) return false;
		const s = window.getComputedStyle(el);
		if (s.display === 'none' || s.visibility === 'hidden') return false;
		const r = el.getBoundingClientRect();
		return r.width > 0 || r.height > 0;
	}`
	jsScrollIntoView = `(el) => { el.scrollIntoView({block: 'center', inline: 'nearest'}); return true; }`
	jsForceClick     = `(el) => { el.click(); return true; }`
	jsCenter         = `(el) => {
		el.scrollIntoView({block: 'center', inline: 'nearest'});
		const r = el.getBoundingClientRect();
		return [r.left + r.width / 2, r.top + r.height / 2];
	}`
	jsFill = `(el, value) => {
		el.focus();
		el.value = value;
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	}`
	jsRemove = `(el) => { el.remove(); return true; }`
)

// jsResponseHook records fetch and XHR responses for drivers without network events
const jsResponseHook = `(() => {
	if (window.__storefrontResponses) return true;
	window.__storefrontResponses = [];
	const record = (url, method, status) => window.__storefrontResponses.push({url: String(url), method: String(method || 'GET').toUpperCase(), status: status});
	const origFetch = window.fetch;
	if (origFetch) {
		window.fetch = function(input, init) {
			const url = typeof input === 'string' ? input : (input && input.url) || '';
			const method = (init && init.method) || (input && input.method) || 'GET';
			return origFetch.apply(this, arguments).then(resp => { record(resp.url || url, method, resp.status); return resp; });
		};
	}
	const open = XMLHttpRequest.prototype.open;
	XMLHttpRequest.prototype.open = function(method, url) {
		this.addEventListener('loadend', () => record(this.responseURL || url, method, this.status));
		return open.apply(this, arguments);
	};
	return true;
})()`

// jsErrorHook records uncaught errors for drivers without runtime events
const jsErrorHook = `(() => {
	if (window.__storefrontErrors) return true;
	window.__storefrontErrors = [];
	window.addEventListener('error', e => window.__storefrontErrors.push({message: String(e.message || e.error || 'error'), source: String(e.filename || '')}));
	window.addEventListener('unhandledrejection', e => window.__storefrontErrors.push({message: String(e.reason && e.reason.message || e.reason), source: ''}));
	return true;
})()`

const (
	jsTakeResponses = `(() => { const r = window.__storefrontResponses || []; window.__storefrontResponses = window.__storefrontResponses ? [] : undefined; return r; })()`
	jsTakeErrors    = `(() => { const r = window.__storefrontErrors || []; if (window.__storefrontErrors) window.__storefrontErrors = []; return r; })()`
)

// attributeResult decodes the jsAttribute result
func attributeResult(v any) (string, bool) {
	switch vals := v.(type) {
	case []any:
		if len(vals) == 0 {
			return "", false
		}
		s, _ := vals[0].(string)
		return s, true
	case []string:
		if len(vals) == 0 {
			return "", false
		}
		return vals[0], true
	}
	return "", false
}

// centerResult decodes the jsCenter result
func centerResult(v any) (float64, float64, error) {
	vals, ok := v.([]any)
	if !ok || len(vals) != 2 {
		return 0, 0, fmt.Errorf("unexpected element center %v", v)
	}
	x, okX := vals[0].(float64)
	y, okY := vals[1].(float64)
	if !okX || !okY {
		return 0, 0, fmt.Errorf("unexpected element center %v", v)
	}
	return x, y, nil
}

// globToBlockedURL converts a route glob such as **/*klaviyo* into the
// single-star wildcard form used by the DevTools protocol
func globToBlockedURL(pattern string) string {
	for strings.Contains(pattern, "**") {
		pattern = strings.ReplaceAll(pattern, "**", "*")
	}
	return strings.ReplaceAll(pattern, "*/*", "*")
}
