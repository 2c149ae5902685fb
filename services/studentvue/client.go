package studentvue

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/clbanning/mxj/v2"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/gradewatch/core"
	"github.com/trezcool/gradewatch/core/student"
)

const (
	servicePath   = "/Service/PXPCommunication.asmx"
	soapNamespace = "http://edupoint.com/webservices/"
	soapAction    = soapNamespace + "ProcessWebServiceRequest"
	handleName    = "PXPWebServices"

	methodChildList   = "ChildList"
	methodCalendar    = "StudentCalendar"
	methodClassList   = "StudentClassList"
	methodGradebook   = "Gradebook"
	methodStudentInfo = "StudentInfo"
)

// RequestError is an error reported by the upstream service itself.
type RequestError struct {
	Method  string
	Message string
}

func (err RequestError) Error() string {
	return fmt.Sprintf("studentvue %s: %s", err.Method, err.Message)
}

func IsRequestError(err error) bool {
	_, ok := errors.Cause(err).(*RequestError)
	return ok
}

type (
	param struct {
		key   string
		value string
	}

	// Client calls the StudentVUE/ParentVUE SOAP service of a district.
	// Parent account calls are made on behalf of the child at index `child`.
	Client struct {
		username string
		password string
		endpoint string
		parent   bool
		child    int
		http     *rest.Client
		log      core.Logger
	}

	Option func(c *Client)
)

var (
	_ student.Fetcher       = (*Client)(nil)
	_ student.ChildSelector = (*Client)(nil)
)

// WithHTTPClient sets the http client requests are sent with.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = &rest.Client{HTTPClient: hc} }
}

func NewClient(conf core.StudentVueConfig, logger core.Logger, opts ...Option) *Client {
	c := &Client{
		username: conf.Username,
		password: conf.Password,
		endpoint: "https://" + NormalizeDomain(conf.Domain) + servicePath,
		parent:   conf.Parent,
		http:     &rest.Client{HTTPClient: &http.Client{Timeout: conf.Timeout}},
		log:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeDomain strips the scheme and any trailing slash from a district domain.
//   "https://sv.example.org/" -> "sv.example.org"
func NormalizeDomain(domain string) string {
	domain = core.CleanString(domain)
	if u, err := url.Parse(domain); err == nil && u.Scheme != "" && u.Host != "" {
		domain = u.Host
	}
	return strings.TrimRight(domain, "/")
}

// ForChild returns a copy of the client acting on behalf of the child at index.
func (c *Client) ForChild(index int) student.Fetcher {
	cp := *c
	cp.child = index
	return &cp
}

// StudentList returns the account's ChildList. Student accounts have no child list,
// so one is built out of their StudentInfo.
func (c *Client) StudentList(ctx context.Context) (core.Document, error) {
	if !c.parent {
		info, err := c.StudentInfo(ctx)
		if err != nil {
			return nil, err
		}
		return childListFromInfo(info), nil
	}
	return c.request(ctx, methodChildList)
}

func (c *Client) Calendar(ctx context.Context) (core.Document, error) {
	return c.request(ctx, methodCalendar)
}

func (c *Client) Schedule(ctx context.Context, termIndex *int) (core.Document, error) {
	return c.request(ctx, methodClassList, optionalParam("TermIndex", termIndex)...)
}

func (c *Client) Gradebook(ctx context.Context, reportPeriod *int) (core.Document, error) {
	return c.request(ctx, methodGradebook, optionalParam("ReportPeriod", reportPeriod)...)
}

func (c *Client) StudentInfo(ctx context.Context) (core.Document, error) {
	return c.request(ctx, methodStudentInfo)
}

func optionalParam(key string, v *int) []param {
	if v == nil {
		return nil
	}
	return []param{{key: key, value: strconv.Itoa(*v)}}
}

// paramString builds the <Parms> payload; every method but ChildList is scoped to a child.
func (c *Client) paramString(method string, params []param) string {
	var b strings.Builder
	b.WriteString("<Parms>")
	if method != methodChildList {
		fmt.Fprintf(&b, "<childIntID>%d</childIntID>", c.child)
	}
	for _, p := range params {
		fmt.Fprintf(&b, "<%s>", p.key)
		_ = xml.EscapeText(&b, []byte(p.value))
		fmt.Fprintf(&b, "</%s>", p.key)
	}
	b.WriteString("</Parms>")
	return b.String()
}

type (
	requestEnvelope struct {
		XMLName xml.Name    `xml:"soap:Envelope"`
		XSI     string      `xml:"xmlns:xsi,attr"`
		XSD     string      `xml:"xmlns:xsd,attr"`
		Soap    string      `xml:"xmlns:soap,attr"`
		Body    requestBody `xml:"soap:Body"`
	}

	requestBody struct {
		Request processRequest `xml:"ProcessWebServiceRequest"`
	}

	processRequest struct {
		XMLNS                string `xml:"xmlns,attr"`
		UserID               string `xml:"userID"`
		Password             string `xml:"password"`
		SkipLoginLog         int    `xml:"skipLoginLog"`
		Parent               int    `xml:"parent"`
		WebServiceHandleName string `xml:"webServiceHandleName"`
		MethodName           string `xml:"methodName"`
		ParamStr             string `xml:"paramStr"`
	}

	responseEnvelope struct {
		Result string `xml:"Body>ProcessWebServiceRequestResponse>ProcessWebServiceRequestResult"`
		Fault  string `xml:"Body>Fault>faultstring"`
	}
)

func (c *Client) envelope(method string, params []param) ([]byte, error) {
	var parent int
	if c.parent {
		parent = 1
	}
	env := requestEnvelope{
		XSI:  "http://www.w3.org/2001/XMLSchema-instance",
		XSD:  "http://www.w3.org/2001/XMLSchema",
		Soap: "http://schemas.xmlsoap.org/soap/envelope/",
		Body: requestBody{Request: processRequest{
			XMLNS:                soapNamespace,
			UserID:               c.username,
			Password:             c.password,
			SkipLoginLog:         1,
			Parent:               parent,
			WebServiceHandleName: handleName,
			MethodName:           method,
			ParamStr:             c.paramString(method, params),
		}},
	}
	body, err := xml.Marshal(env)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

func (c *Client) request(ctx context.Context, method string, params ...param) (core.Document, error) {
	body, err := c.envelope(method, params)
	if err != nil {
		return nil, errors.Wrapf(err, "studentvue %s: building request", method)
	}

	start := time.Now()
	res, err := c.http.SendWithContext(ctx, rest.Request{
		Method:  rest.Post,
		BaseURL: c.endpoint,
		Headers: map[string]string{
			"Content-Type": "text/xml; charset=utf-8",
			"SOAPAction":   soapAction,
		},
		Body: body,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "studentvue %s", method)
	}
	c.log.Debug(fmt.Sprintf("studentvue %s: %d in %s", method, res.StatusCode, time.Since(start)))

	var env responseEnvelope
	if err := xml.Unmarshal([]byte(res.Body), &env); err != nil {
		return nil, errors.Wrapf(err, "studentvue %s: status %d", method, res.StatusCode)
	}
	if env.Fault != "" {
		return nil, &RequestError{Method: method, Message: env.Fault}
	}
	if res.StatusCode >= http.StatusBadRequest {
		return nil, errors.Errorf("studentvue %s: status %d", method, res.StatusCode)
	}
	return decode(method, env.Result)
}

// decode converts the inner result XML into a Document.
func decode(method, result string) (core.Document, error) {
	if core.CleanString(result) == "" {
		return nil, errors.Errorf("studentvue %s: empty result", method)
	}
	m, err := mxj.NewMapXml([]byte(result))
	if err != nil {
		return nil, errors.Wrapf(err, "studentvue %s: decoding result", method)
	}
	doc := core.Document(m)
	if rtErr := doc.Child("RT_ERROR"); rtErr != nil {
		return nil, &RequestError{Method: method, Message: rtErr.Attr("ERROR_MESSAGE")}
	}
	return doc, nil
}

func childListFromInfo(info core.Document) core.Document {
	si := info.Child("StudentInfo")
	name := si.Text("FormattedName")
	var first string
	if fields := strings.Fields(name); len(fields) > 0 {
		first = fields[0]
	}
	if nick := core.CleanString(si.Text("NickName")); nick != "" {
		first = nick
	}
	return core.Document{"ChildList": map[string]interface{}{
		"-DistrictName": si.Text("CurrentSchool"),
		"Child": map[string]interface{}{
			"-ChildPermID":     si.Text("PermID"),
			"-AccessGU":        si.Text("PermID"),
			"-ChildFirstName":  first,
			"ChildName":        name,
			"OrganizationName": si.Text("CurrentSchool"),
			"photo":            si.Text("Photo"),
		},
	}}
}
