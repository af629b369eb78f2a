package shopback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"sbexport/lib/restyutil"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBaseUrl        = "https://www.shopback.com.au"
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
	DefaultAcceptLanguage = "en-AU,en-US;q=0.9,en-GB;q=0.8,en;q=0.7"
	DefaultPlatform       = "Windows"

	// identifies the order history server action, it changes whenever the
	// site is redeployed.
	DefaultOrderActionId   = "ed3b2f4ce5d02fc879c446ba204ef996f1ea0bd7"
	DefaultRouterStateTree = "%5B%22%22%2C%7B%22children%22%3A%5B%22ecommerce%22%2C%7B%22children%22%3A%5B%22(profile-pages)%22%2C%7B%22children%22%3A%5B%22order-history%22%2C%7B%22children%22%3A%5B%22__PAGE__%22%2C%7B%7D%2C%22%2Fecommerce%2Forder-history%22%2C%22refresh%22%5D%7D%5D%7D%5D%7D%5D%7D%2Cnull%2Cnull%2Ctrue%5D"

	DefaultOrderPageSize = 20
)

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
	opts    ClientOptions
}

type ClientOptions struct {
	BaseUrl string
	// Cookie is the raw cookie header of a logged in browser session.
	Cookie          string
	UserAgent       string
	AcceptLanguage  string
	Platform        string
	Mobile          bool
	OrderActionId   string
	RouterStateTree string
	Timeout         time.Duration
}

func (o *ClientOptions) setDefaults() {
	if o.BaseUrl == "" {
		o.BaseUrl = DefaultBaseUrl
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.AcceptLanguage == "" {
		o.AcceptLanguage = DefaultAcceptLanguage
	}
	if o.Platform == "" {
		o.Platform = DefaultPlatform
	}
	if o.OrderActionId == "" {
		o.OrderActionId = DefaultOrderActionId
	}
	if o.RouterStateTree == "" {
		o.RouterStateTree = DefaultRouterStateTree
	}
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
}

var userAgentRegex = regexp.MustCompile(`(Chrome|Firefox|Safari|Edge|Opera)/(\d+)\.\d+`)

// ClientHints builds the sec-ch-ua headers a browser with the given user
// agent would send, nil when the agent is not recognised.
func ClientHints(userAgent, platform string, mobile bool) map[string]string {
	groups := userAgentRegex.FindStringSubmatch(userAgent)
	if groups == nil {
		return nil
	}
	name, major := groups[1], groups[2]
	mobileHint := "?0"
	if mobile {
		mobileHint = "?1"
	}
	return map[string]string{
		"sec-ch-ua":          fmt.Sprintf(`"Not(A:Brand";v="99", "%s";v="%s", "Chromium";v="%s"`, name, major, major),
		"sec-ch-ua-mobile":   mobileHint,
		"sec-ch-ua-platform": fmt.Sprintf(`"%s"`, platform),
	}
}

func NewClient(opts ClientOptions) (*Client, error) {
	opts.setDefaults()
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimSuffix(opts.BaseUrl, "/"))
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", opts.UserAgent)
	client.SetHeader("accept-language", opts.AcceptLanguage)
	client.SetHeader("priority", "u=1, i")
	client.SetHeader("sec-fetch-dest", "empty")
	client.SetHeader("sec-fetch-mode", "cors")
	client.SetHeader("sec-fetch-site", "same-origin")
	client.SetHeaders(ClientHints(opts.UserAgent, opts.Platform, opts.Mobile))
	if opts.Cookie != "" {
		client.SetHeader("cookie", opts.Cookie)
	}
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(opts.Timeout)

	restyutil.InstrumentClient(client, "shopback", tracer, restyInstrumentOutput)

	return &Client{
		BaseUrl: baseUrl,
		Http:    client,
		opts:    opts,
	}, nil
}

// StatusError is a response outside the 2xx range.
type StatusError struct {
	Method string
	Path   string
	Status int
}

func (e StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Status)
}

func checkResponse(span trace.Span, res *resty.Response) error {
	span.SetAttributes(attribute.Int("status", res.StatusCode()))
	if !res.IsError() && res.StatusCode() < 300 {
		return nil
	}
	err := StatusError{
		Method: res.Request.Method,
		Path:   res.Request.URL,
		Status: res.StatusCode(),
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// the tokens come from a previous response and are already url encoded,
// they are appended without escaping again.
func withNext(path, token string) string {
	if token == "" {
		return path
	}
	return path + "?next=" + token
}

// CashbackSearch fetches one page of cashback earned. the body is
// returned as is.
func (c *Client) CashbackSearch(ctx context.Context, token string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "client:CashbackSearch")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("accept", "application/json").
		SetHeader("referer", c.BaseUrl.JoinPath("/cashback").String()).
		Get(withNext("/api/cashback/search", token))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, err
	}
	err = checkResponse(span, res)
	if err != nil {
		return res.Body(), err
	}
	return res.Body(), nil
}

// PaymentHistory fetches one page of cashback withdrawals.
func (c *Client) PaymentHistory(ctx context.Context, token string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "client:PaymentHistory")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("accept", "application/json").
		SetHeader("referer", c.BaseUrl.JoinPath("/cashback").String()).
		Get(withNext("/api/payment/history", token))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, err
	}
	err = checkResponse(span, res)
	if err != nil {
		return res.Body(), err
	}
	return res.Body(), nil
}

// OrderHistory calls the order history server action for orders paid
// before `before` (an ISO timestamp), newest first.
func (c *Client) OrderHistory(ctx context.Context, before string, limit int) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "client:OrderHistory", trace.WithAttributes(
		attribute.String("before", before),
	))
	defer span.End()

	if limit <= 0 {
		limit = DefaultOrderPageSize
	}
	var body bytes.Buffer
	encoder := json.NewEncoder(&body)
	encoder.SetEscapeHTML(false)
	err := encoder.Encode([]string{
		fmt.Sprintf("ecommerce/mobile/orders?before=%s&limit=%d", before, limit),
	})
	if err != nil {
		return nil, err
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("accept", "text/x-component").
		SetHeader("content-type", "text/plain;charset=UTF-8").
		SetHeader("next-action", c.opts.OrderActionId).
		SetHeader("next-router-state-tree", c.opts.RouterStateTree).
		SetHeader("referer", c.BaseUrl.JoinPath("/ecommerce/order-history").String()).
		SetBody(bytes.TrimSpace(body.Bytes())).
		Post("/ecommerce/order-history")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, err
	}
	err = checkResponse(span, res)
	if err != nil {
		return res.Body(), err
	}
	return res.Body(), nil
}
