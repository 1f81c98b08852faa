package campaigns

import "github.com/jonathan/recruit-search/internal/types"

// Overview is the headline summary shown above a campaign list.
type Overview struct {
	Type         string
	Campaigns    int
	Active       int
	TotalSent    int
	AvgOpenRate  float64
	AvgReplyRate float64
}

// Summarize totals sends and averages open and reply rates. Campaigns
// without stats count as zero in the averages.
func Summarize(list []types.Campaign) Overview {
	o := Overview{Campaigns: len(list)}
	if len(list) == 0 {
		return o
	}

	var openSum, replySum float64
	for _, c := range list {
		if c.Status == types.CampaignStatusActive {
			o.Active++
		}
		if c.Stats == nil {
			continue
		}
		o.TotalSent += c.Stats.Sent
		openSum += c.Stats.OpenRate
		replySum += c.Stats.ReplyRate
	}
	o.AvgOpenRate = openSum / float64(len(list))
	o.AvgReplyRate = replySum / float64(len(list))
	return o
}
