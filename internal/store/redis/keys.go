package redis

// Key namespace. Everything this service persists is small K/V state:
// newsletter sent flags, cached exchange rates, and the waitlist pledge
// counter.
const (
	keyPrefix = "ragsite:"

	// KeyPrefixSent marks newsletter dispatches, one key per post slug.
	KeyPrefixSent = keyPrefix + "newsletter:sent:"

	// KeyPrefixRate caches exchange rates, one key per target currency.
	KeyPrefixRate = keyPrefix + "exchange:rate:"

	// KeyPledges is the waitlist submission counter.
	KeyPledges = keyPrefix + "waitlist:pledges"
)

// SentKey returns the sent-flag key for a post slug.
func SentKey(slug string) string {
	return KeyPrefixSent + slug
}

// RateKey returns the cached-rate key for a target currency code.
func RateKey(target string) string {
	return KeyPrefixRate + target
}
