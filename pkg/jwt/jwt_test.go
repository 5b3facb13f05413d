package jwt_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"walletdesk/pkg/jwt"
)

var _ = Describe("JWTService", func() {
	var (
		service *jwt.JWTService
		info    jwt.TokenInfo
	)

	BeforeEach(func() {
		service = jwt.NewJWTService([]byte("test-secret"))
		info = jwt.TokenInfo{
			Email:      "alice@example.com",
			Subject:    "u1",
			Session:    "aabbccddeeff00112233445566778899",
			Expiration: time.Hour,
		}
	})

	AfterEach(func() {
		jwt.TimeNow = time.Now
	})

	It("round trips the claims", func() {
		signed, err := service.Sign(service.Generate(info))
		Expect(err).NotTo(HaveOccurred())

		claims, err := service.Validate(signed)
		Expect(err).NotTo(HaveOccurred())
		Expect(claims["sub"]).To(Equal("u1"))
		Expect(claims["email"]).To(Equal("alice@example.com"))
		Expect(claims["sid"]).To(Equal("aabbccddeeff00112233445566778899"))
	})

	It("rejects a token signed with another secret", func() {
		other := jwt.NewJWTService([]byte("other-secret"))
		signed, err := other.Sign(other.Generate(info))
		Expect(err).NotTo(HaveOccurred())

		_, err = service.Validate(signed)
		Expect(err).To(MatchError(jwt.ErrTokenNotValid))
	})

	It("rejects an expired token", func() {
		jwt.TimeNow = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		signed, err := service.Sign(service.Generate(info))
		Expect(err).NotTo(HaveOccurred())
		jwt.TimeNow = time.Now

		_, err = service.Validate(signed)
		Expect(err).To(HaveOccurred())
	})
})
