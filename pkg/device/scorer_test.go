package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func activityFrom(ip string, success bool) LoginActivity {
	return LoginActivity{IPAddress: ipPtr(ip), Success: success}
}

var iPhone = Fingerprint{Name: "iPhone 14", Class: DeviceClassMobile, OS: OSiOS}

func storedDevice(fp Fingerprint) Device {
	return Device{Name: fp.Name, Class: fp.Class, OS: fp.OS}
}

func TestScoreWeightsSumToOne(t *testing.T) {
	assert.Equal(t, 100, nameWeight+classWeight+osWeight+ipRecurrenceWeight)

	score := Score(iPhone, "1.2.3.4", storedDevice(iPhone), []LoginActivity{activityFrom("1.2.3.4", true)})
	assert.Equal(t, 1.0, score)
}

func TestScoreIsDeterministic(t *testing.T) {
	live := Fingerprint{Name: "Chrome", Class: DeviceClassBrowser, OS: OSAndroid}
	activities := []LoginActivity{activityFrom("10.0.0.1", true), activityFrom("10.0.0.2", false)}

	first := Score(live, "10.0.0.2", storedDevice(iPhone), activities)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score(live, "10.0.0.2", storedDevice(iPhone), activities))
	}
}

func TestScoreUnknownNameIsNotAMatch(t *testing.T) {
	unknown := Fingerprint{Name: UnknownName, Class: DeviceClassUnknown, OS: OSUnknown}

	score := Score(unknown, "", storedDevice(unknown), nil)
	// class and OS only
	assert.Equal(t, 0.3, score)
}

func TestScoreIPRecurrenceIsHistoryWide(t *testing.T) {
	live := Fingerprint{Name: "Firefox", Class: DeviceClassBrowser, OS: OSUnknown}
	stored := storedDevice(iPhone)
	activities := []LoginActivity{
		activityFrom("5.5.5.5", true),
		activityFrom("6.6.6.6", false),
		{IPAddress: nil, Success: true},
		activityFrom("7.7.7.7", true),
	}

	assert.Equal(t, 0.4, Score(live, "5.5.5.5", stored, activities), "oldest activity")
	assert.Equal(t, 0.4, Score(live, "6.6.6.6", stored, activities), "failed activity")
	assert.Equal(t, 0.0, Score(live, "8.8.8.8", stored, activities))
	assert.Equal(t, 0.0, Score(live, "", stored, activities), "empty live IP never recurs")
}

func TestDecideThresholdBoundaries(t *testing.T) {
	stored := Device{Name: "Pixel 7", Class: DeviceClassMobile, OS: OSAndroid}
	seen := []LoginActivity{activityFrom("1.1.1.1", true)}

	tests := []struct {
		name   string
		live   Fingerprint
		ip     string
		score  float64
		result TrustResult
	}{
		{
			name:   "class only",
			live:   Fingerprint{Name: "Other", Class: DeviceClassMobile, OS: OSiOS},
			ip:     "9.9.9.9",
			score:  0.1,
			result: Untrusted,
		},
		{
			name:   "name and os",
			live:   Fingerprint{Name: "Pixel 7", Class: DeviceClassBrowser, OS: OSAndroid},
			ip:     "9.9.9.9",
			score:  0.5,
			result: Trusted,
		},
		{
			name:   "ip only",
			live:   Fingerprint{Name: "Other", Class: DeviceClassBrowser, OS: OSiOS},
			ip:     "1.1.1.1",
			score:  0.4,
			result: Trusted,
		},
		{
			name:   "class and os is exactly the threshold",
			live:   Fingerprint{Name: "Other", Class: DeviceClassMobile, OS: OSAndroid},
			ip:     "9.9.9.9",
			score:  0.3,
			result: Trusted,
		},
		{
			name:   "name alone",
			live:   Fingerprint{Name: "Pixel 7", Class: DeviceClassBrowser, OS: OSiOS},
			ip:     "",
			score:  0.3,
			result: Trusted,
		},
		{
			name:   "os only",
			live:   Fingerprint{Name: "Other", Class: DeviceClassBrowser, OS: OSAndroid},
			ip:     "",
			score:  0.2,
			result: Untrusted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Score(tt.live, tt.ip, stored, seen)
			assert.Equal(t, tt.score, score)
			assert.Equal(t, tt.result, Decide(score))
		})
	}
}

func TestScoreScenarios(t *testing.T) {
	stored := storedDevice(iPhone)
	history := []LoginActivity{activityFrom("1.2.3.4", true)}

	t.Run("same phone same network", func(t *testing.T) {
		score := Score(iPhone, "1.2.3.4", stored, history)
		assert.Equal(t, 1.0, score)
		assert.Equal(t, Trusted, Decide(score))
	})

	t.Run("different browser unseen network", func(t *testing.T) {
		live := Fingerprint{Name: "Unknown Browser", Class: DeviceClassBrowser, OS: OSUnknown}
		score := Score(live, "9.9.9.9", stored, history)
		assert.Equal(t, 0.0, score)
		assert.Equal(t, Untrusted, Decide(score))
	})
}
