package device

// Signal weights in hundredths of a point. They must sum to 100.
const (
	nameWeight         = 30
	classWeight        = 10
	osWeight           = 20
	ipRecurrenceWeight = 40
)

// TrustThreshold is the inclusive minimum score for a Trusted decision.
const TrustThreshold = 0.3

type TrustResult string

const (
	Trusted       TrustResult = "trusted"
	Untrusted     TrustResult = "untrusted"
	UnknownDevice TrustResult = "unknown_device"
)

// Score compares a live fingerprint and IP with a stored device and its
// activity history and returns a value in [0, 1].
//
//   - name match, unless the stored name is UnknownName: 0.30
//   - device class match: 0.10
//   - OS family match: 0.20
//   - live IP seen in any past activity: 0.40
func Score(live Fingerprint, liveIP string, stored Device, activities []LoginActivity) float64 {
	points := 0
	if live.Name == stored.Name && stored.Name != UnknownName {
		points += nameWeight
	}
	if live.Class == stored.Class {
		points += classWeight
	}
	if live.OS == stored.OS {
		points += osWeight
	}
	if ipSeen(liveIP, activities) {
		points += ipRecurrenceWeight
	}
	return float64(points) / 100
}

// Decide maps a score to Trusted or Untrusted.
func Decide(score float64) TrustResult {
	if score >= TrustThreshold {
		return Trusted
	}
	return Untrusted
}

func ipSeen(ip string, activities []LoginActivity) bool {
	if ip == "" {
		return false
	}
	for _, a := range activities {
		if a.IPAddress != nil && *a.IPAddress == ip {
			return true
		}
	}
	return false
}
