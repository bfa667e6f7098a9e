package browser

import (
	"testing"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront_e2e/domain/entities"
)

func newEventPage() *chromedpPage {
	return &chromedpPage{
		methods: make(map[network.RequestID]string),
		waiters: make(map[int]responseWaiter),
	}
}

func TestChromedpPage_ExceptionReachesHandlersBeforeReturn(t *testing.T) {
	p := newEventPage()
	var got [][2]string
	p.OnPageError(func(message, source string) {
		got = append(got, [2]string{message, source})
	})

	p.onEvent(&runtime.EventExceptionThrown{ExceptionDetails: &runtime.ExceptionDetails{
		Text:      "Uncaught",
		URL:       "https://shop.test/cdn/theme.js",
		Exception: &runtime.RemoteObject{Description: "TypeError: cart is undefined"},
	}})
	p.onEvent(&runtime.EventExceptionThrown{ExceptionDetails: &runtime.ExceptionDetails{
		Text: "Script error.",
	}})

	assert.Equal(t, [][2]string{
		{"TypeError: cart is undefined", "https://shop.test/cdn/theme.js"},
		{"Script error.", ""},
	}, got)
}

func TestChromedpPage_ResponseWaiter(t *testing.T) {
	p := newEventPage()
	ch := make(chan entities.NetworkResponse, 1)
	p.waiters[0] = responseWaiter{
		match: func(r entities.NetworkResponse) bool { return r.Status == 200 },
		ch:    ch,
	}

	p.onEvent(&network.EventRequestWillBeSent{RequestID: "1", Request: &network.Request{Method: "POST"}})
	p.onEvent(&network.EventResponseReceived{RequestID: "1", Response: &network.Response{
		URL:    "https://shop.test/cart/add.js",
		Status: 200,
	}})

	require.Len(t, ch, 1)
	assert.Equal(t, entities.NetworkResponse{URL: "https://shop.test/cart/add.js", Method: "POST", Status: 200}, <-ch)
	assert.Empty(t, p.methods)
}
