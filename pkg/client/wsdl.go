package client

import (
	"encoding/xml"
	"sort"
)

// The contract is externally defined and stable. When WSDL introspection is
// unavailable the published operation catalog is served instead.
var defaultOperations = []string{
	"addSubjectToRole",
	"caCertResponse",
	"caCertResponseForRollover",
	"caRenewCertRequest",
	"certificateRequest",
	"checkRevokationStatus",
	"createCA",
	"createCRL",
	"createCryptoToken",
	"createExternallySignedCa",
	"crmfRequest",
	"customLog",
	"cvcRequest",
	"deleteUserDataFromSource",
	"editUser",
	"enrollAndIssueSshCertificate",
	"existsHardToken",
	"fetchUserData",
	"findCerts",
	"findUser",
	"generateCryptoTokenKeys",
	"genTokenCertificates",
	"getAuthorizedEndEntityProfiles",
	"getAvailableCAs",
	"getAvailableCAsInProfile",
	"getAvailableCertificateProfiles",
	"getCertificate",
	"getCertificatesByExpirationTime",
	"getCertificatesByExpirationTimeAndIssuer",
	"getCertificatesByExpirationTimeAndType",
	"getEjbcaVersion",
	"getHardTokenData",
	"getHardTokenDatas",
	"getLastCAChain",
	"getLastCertChain",
	"getLatestCRL",
	"getLatestCRLPartition",
	"getProfile",
	"getPublisherQueueLength",
	"getRemainingNumberOfApprovals",
	"getSshCaPublicKey",
	"importCaCert",
	"isApproved",
	"isAuthorized",
	"keyRecover",
	"keyRecoverEnroll",
	"keyRecoverNewest",
	"pkcs10Request",
	"pkcs12Req",
	"removeSubjectFromRole",
	"republishCertificate",
	"revokeCert",
	"revokeCertBackdated",
	"revokeCertWithMetadata",
	"revokeToken",
	"revokeUser",
	"rolloverCACert",
	"softTokenRequest",
	"spkacRequest",
}

type wsdlDefinitions struct {
	XMLName   xml.Name `xml:"definitions"`
	PortTypes []struct {
		Operations []struct {
			Name string `xml:"name,attr"`
		} `xml:"operation"`
	} `xml:"portType"`
}

// parseWSDLOperations pulls the operation names out of the service's
// published portType. Returns an empty slice when none are declared.
func parseWSDLOperations(raw []byte) ([]string, error) {
	var defs wsdlDefinitions
	if err := xml.Unmarshal(raw, &defs); err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var ops []string
	for _, pt := range defs.PortTypes {
		for _, op := range pt.Operations {
			if op.Name == "" || seen[op.Name] {
				continue
			}
			seen[op.Name] = true
			ops = append(ops, op.Name)
		}
	}
	sort.Strings(ops)
	return ops, nil
}
