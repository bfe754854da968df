package client

import "encoding/xml"

// EJBCA web service document types. Field order follows the service
// contract and must not be rearranged.

type UserDataVOWS struct {
	Username               string `xml:"username"`
	Password               string `xml:"password"`
	ClearPwd               bool   `xml:"clearPwd"`
	SubjectDN              string `xml:"subjectDN"`
	CAName                 string `xml:"caName"`
	SubjectAltName         string `xml:"subjectAltName"`
	Email                  string `xml:"email"`
	Status                 int    `xml:"status"`
	TokenType              string `xml:"tokenType"`
	SendNotification       bool   `xml:"sendNotification"`
	KeyRecoverable         bool   `xml:"keyRecoverable"`
	EndEntityProfileName   string `xml:"endEntityProfileName"`
	CertificateProfileName string `xml:"certificateProfileName"`
}

type UserMatch struct {
	MatchWith  int    `xml:"matchwith"`
	MatchType  int    `xml:"matchtype"`
	MatchValue string `xml:"matchvalue"`
}

// userMatch constants from the contract.
const (
	MatchWithUsername = 0
	MatchTypeEquals   = 0
)

// End-entity status codes.
const (
	StatusNew       = 10
	StatusGenerated = 40
	StatusRevoked   = 50
)

// Token types accepted by editUser.
const (
	TokenTypeUserGenerated = "USERGENERATED"
	TokenTypeP12           = "P12"
	TokenTypeJKS           = "JKS"
	TokenTypePEM           = "PEM"
)

// pkcs10Request response types.
const (
	ResponseTypeCertificate = "CERTIFICATE"
	ResponseTypePKCS7       = "PKCS7"
)

type Certificate struct {
	CertificateData string `xml:"certificateData"`
	Type            int    `xml:"type"`
}

type CertificateResponse struct {
	Data         string `xml:"data"`
	ResponseType string `xml:"responseType"`
}

type NameAndID struct {
	Name string `xml:"name"`
	ID   int    `xml:"id"`
}

type RevokeStatus struct {
	CertificateSN  string `xml:"certificateSN"`
	IssuerDN       string `xml:"issuerDN"`
	Reason         int    `xml:"reason"`
	RevocationDate string `xml:"revocationDate"`
}

// Revocation reason NOT_REVOKED as reported by checkRevokationStatus.
const ReasonNotRevoked = -1

type GetEjbcaVersionRequest struct {
	XMLName xml.Name `xml:"ws:getEjbcaVersion"`
}

type GetEjbcaVersionResponse struct {
	XMLName xml.Name `xml:"getEjbcaVersionResponse"`
	Return  string   `xml:"return"`
}

type GetAvailableCAsRequest struct {
	XMLName xml.Name `xml:"ws:getAvailableCAs"`
}

type GetAvailableCAsResponse struct {
	XMLName xml.Name    `xml:"getAvailableCAsResponse"`
	Return  []NameAndID `xml:"return"`
}

type GetLastCAChainRequest struct {
	XMLName xml.Name `xml:"ws:getLastCAChain"`
	CAName  string   `xml:"arg0"`
}

type GetLastCAChainResponse struct {
	XMLName xml.Name      `xml:"getLastCAChainResponse"`
	Return  []Certificate `xml:"return"`
}

type GetLatestCRLRequest struct {
	XMLName  xml.Name `xml:"ws:getLatestCRL"`
	CAName   string   `xml:"arg0"`
	DeltaCRL bool     `xml:"arg1"`
}

type GetLatestCRLResponse struct {
	XMLName xml.Name `xml:"getLatestCRLResponse"`
	Return  string   `xml:"return"`
}

type EditUserRequest struct {
	XMLName xml.Name     `xml:"ws:editUser"`
	User    UserDataVOWS `xml:"arg0"`
}

type EditUserResponse struct {
	XMLName xml.Name `xml:"editUserResponse"`
}

type FindUserRequest struct {
	XMLName xml.Name  `xml:"ws:findUser"`
	Match   UserMatch `xml:"arg0"`
}

type FindUserResponse struct {
	XMLName xml.Name       `xml:"findUserResponse"`
	Users   []UserDataVOWS `xml:"return"`
}

type RevokeUserRequest struct {
	XMLName  xml.Name `xml:"ws:revokeUser"`
	Username string   `xml:"arg0"`
	Reason   int      `xml:"arg1"`
	Delete   bool     `xml:"arg2"`
}

type RevokeUserResponse struct {
	XMLName xml.Name `xml:"revokeUserResponse"`
}

type PKCS10Request struct {
	XMLName      xml.Name `xml:"ws:pkcs10Request"`
	Username     string   `xml:"arg0"`
	Password     string   `xml:"arg1"`
	PKCS10       string   `xml:"arg2"`
	HardTokenSN  *string  `xml:"arg3,omitempty"`
	ResponseType string   `xml:"arg4"`
}

type PKCS10Response struct {
	XMLName xml.Name            `xml:"pkcs10RequestResponse"`
	Return  CertificateResponse `xml:"return"`
}

type GetCertificateRequest struct {
	XMLName       xml.Name `xml:"ws:getCertificate"`
	CertificateSN string   `xml:"arg0"`
	IssuerDN      string   `xml:"arg1"`
}

type GetCertificateResponse struct {
	XMLName xml.Name     `xml:"getCertificateResponse"`
	Return  *Certificate `xml:"return"`
}

type GetLastCertChainRequest struct {
	XMLName  xml.Name `xml:"ws:getLastCertChain"`
	Username string   `xml:"arg0"`
}

type GetLastCertChainResponse struct {
	XMLName xml.Name      `xml:"getLastCertChainResponse"`
	Return  []Certificate `xml:"return"`
}

type RevokeCertRequest struct {
	XMLName       xml.Name `xml:"ws:revokeCert"`
	IssuerDN      string   `xml:"arg0"`
	CertificateSN string   `xml:"arg1"`
	Reason        int      `xml:"arg2"`
}

type RevokeCertResponse struct {
	XMLName xml.Name `xml:"revokeCertResponse"`
}

type CheckRevokationStatusRequest struct {
	XMLName       xml.Name `xml:"ws:checkRevokationStatus"`
	IssuerDN      string   `xml:"arg0"`
	CertificateSN string   `xml:"arg1"`
}

type CheckRevokationStatusResponse struct {
	XMLName xml.Name      `xml:"checkRevokationStatusResponse"`
	Return  *RevokeStatus `xml:"return"`
}

type FindCertsRequest struct {
	XMLName   xml.Name `xml:"ws:findCerts"`
	Username  string   `xml:"arg0"`
	OnlyValid bool     `xml:"arg1"`
}

type FindCertsResponse struct {
	XMLName xml.Name      `xml:"findCertsResponse"`
	Return  []Certificate `xml:"return"`
}

type GetAuthorizedEndEntityProfilesRequest struct {
	XMLName xml.Name `xml:"ws:getAuthorizedEndEntityProfiles"`
}

type GetAuthorizedEndEntityProfilesResponse struct {
	XMLName xml.Name    `xml:"getAuthorizedEndEntityProfilesResponse"`
	Return  []NameAndID `xml:"return"`
}

type GetAvailableCertificateProfilesRequest struct {
	XMLName         xml.Name `xml:"ws:getAvailableCertificateProfiles"`
	EntityProfileID int      `xml:"arg0"`
}

type GetAvailableCertificateProfilesResponse struct {
	XMLName xml.Name    `xml:"getAvailableCertificateProfilesResponse"`
	Return  []NameAndID `xml:"return"`
}
