package fetch

import (
	"net/url"
	"strings"
)

// Platform is a known job board or applicant tracking system.
type Platform string

const (
	PlatformGreenhouse Platform = "greenhouse"
	PlatformLever      Platform = "lever"
	PlatformWorkday    Platform = "workday"
	PlatformAshby      Platform = "ashby"
	PlatformLinkedIn   Platform = "linkedin"
	PlatformUnknown    Platform = "unknown"
)

// hostPlatforms maps host suffixes to platforms.
var hostPlatforms = []struct {
	suffix   string
	platform Platform
}{
	{"greenhouse.io", PlatformGreenhouse},
	{"lever.co", PlatformLever},
	{"myworkdayjobs.com", PlatformWorkday},
	{"workday.com", PlatformWorkday},
	{"ashbyhq.com", PlatformAshby},
	{"linkedin.com", PlatformLinkedIn},
}

// DetectPlatform identifies the platform hosting a job posting URL.
func DetectPlatform(rawURL string) Platform {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return PlatformUnknown
	}
	host := strings.ToLower(parsed.Hostname())
	for _, hp := range hostPlatforms {
		if host == hp.suffix || strings.HasSuffix(host, "."+hp.suffix) {
			return hp.platform
		}
	}
	return PlatformUnknown
}

// commonNoise strips application forms, EEO blocks and share widgets.
var commonNoise = []string{
	"form",
	"#application-form",
	".application-form",
	".apply-button-container",
	".eeo-statement",
	".eeo-section",
	".voluntary-disclosure",
	".self-identification",
	".social-share",
	".share-buttons",
	".cookie-consent",
	".gdpr-notice",
}

// Selectors returns content and noise selectors tuned for the platform.
func (p Platform) Selectors() Selectors {
	switch p {
	case PlatformGreenhouse:
		return Selectors{
			Content: []string{".job__description.body", ".job__description", "#content", ".job-post-container"},
			Noise:   withNoise("#usa_self_id_section", ".voluntary-self-id", ".post-apply"),
		}
	case PlatformLever:
		return Selectors{
			Content: []string{".posting-page", ".posting-description", ".content"},
			Noise:   withNoise(".posting-apply", ".apply-section"),
		}
	case PlatformWorkday:
		return Selectors{
			Content: []string{"[data-automation-id='jobPostingDescription']", "[data-automation-id='jobDescription']", ".job-description"},
			Noise:   withNoise("[data-automation-id='applyButton']"),
		}
	case PlatformAshby:
		return Selectors{
			Content: []string{"._descriptionText_oj0x8_198", "[class*='descriptionText']", "main"},
			Noise:   withNoise("[class*='applicationForm']"),
		}
	case PlatformLinkedIn:
		return Selectors{
			Content: []string{".show-more-less-html__markup", ".description__text", ".jobs-description"},
			Noise:   withNoise(".similar-jobs", ".people-also-viewed"),
		}
	default:
		return Selectors{Content: JobPostingSelectors(), Noise: withNoise()}
	}
}

func withNoise(extra ...string) []string {
	out := make([]string, 0, len(commonNoise)+len(extra))
	out = append(out, commonNoise...)
	return append(out, extra...)
}
