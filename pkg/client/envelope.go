package client

import (
	"bytes"
	"encoding/xml"
)

// Namespace of the EJBCA web service contract.
const Namespace = "http://ws.protocol.core.ejbca.org/"

const soapNamespace = "http://schemas.xmlsoap.org/soap/envelope/"

type requestEnvelope struct {
	XMLName xml.Name    `xml:"soapenv:Envelope"`
	SoapNS  string      `xml:"xmlns:soapenv,attr"`
	WsNS    string      `xml:"xmlns:ws,attr"`
	Header  struct{}    `xml:"soapenv:Header"`
	Body    requestBody `xml:"soapenv:Body"`
}

type requestBody struct {
	Payload interface{}
}

type responseEnvelope struct {
	XMLName xml.Name     `xml:"Envelope"`
	Body    responseBody `xml:"Body"`
}

type responseBody struct {
	Fault *soapFault `xml:"Fault"`
	Inner []byte     `xml:",innerxml"`
}

type soapFault struct {
	Code    string `xml:"faultcode"`
	Message string `xml:"faultstring"`
}

// encodeEnvelope wraps an operation payload into a SOAP 1.1 envelope. The
// payload struct names the operation element through its XMLName tag.
func encodeEnvelope(payload interface{}) ([]byte, error) {
	env := requestEnvelope{
		SoapNS: soapNamespace,
		WsNS:   Namespace,
		Body:   requestBody{Payload: payload},
	}
	buf := &bytes.Buffer{}
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(buf)
	if err := enc.Encode(env); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeEnvelope parses a SOAP reply. A fault is returned as a classified
// error; otherwise the body is unmarshaled into response when non-nil.
func decodeEnvelope(operation string, raw []byte, response interface{}) error {
	var env responseEnvelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		return &TransportError{Operation: operation, Err: err}
	}
	if env.Body.Fault != nil {
		return classifyFault(operation, env.Body.Fault.Code, env.Body.Fault.Message)
	}
	if response == nil {
		return nil
	}
	if err := xml.Unmarshal(env.Body.Inner, response); err != nil {
		return &TransportError{Operation: operation, Err: err}
	}
	return nil
}
