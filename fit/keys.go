// Copyright 2023 The Armored Witness authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fit

import (
	"crypto/rsa"
	"crypto/x509"
	"fmt"
)

// ParsePublicKey decodes an RSA public key from DER bytes, trying
// PKCS#1, PKIX (SubjectPublicKeyInfo), and an X.509 certificate's
// embedded public key in turn (spec.md §6). Ported from the
// try-each-format-in-turn shape of google-trillian's
// crypto/keys/der/der.go UnmarshalPrivateKey/UnmarshalPublicKey, which
// also resolves this purely with the standard library.
func ParsePublicKey(der []byte) (*rsa.PublicKey, error) {
	if pub, err := x509.ParsePKCS1PublicKey(der); err == nil {
		return pub, nil
	}
	if pub, err := x509.ParsePKIXPublicKey(der); err == nil {
		if rsaPub, ok := pub.(*rsa.PublicKey); ok {
			return rsaPub, nil
		}
	}
	if cert, err := x509.ParseCertificate(der); err == nil {
		if rsaPub, ok := cert.PublicKey.(*rsa.PublicKey); ok {
			return rsaPub, nil
		}
	}
	return nil, fmt.Errorf("%w: rsa public key import failed", ErrCryptoFailure)
}
