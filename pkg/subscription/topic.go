package subscription

import (
	"errors"
	"fmt"
	"net/url"
)

const topicFormat = "https://www.youtube.com/xml/feeds/videos.xml?channel_id=%s"

// ErrNoChannelInTopic is returned when a topic URL carries no channel_id.
var ErrNoChannelInTopic = errors.New("subscription: topic carries no channel_id")

// TopicForChannel derives the feed topic URL for a channel ID.
func TopicForChannel(channel string) string {
	return fmt.Sprintf(topicFormat, url.QueryEscape(channel))
}

// ChannelFromTopic recovers the channel ID from a feed topic URL.
func ChannelFromTopic(topic string) (string, error) {
	u, err := url.Parse(topic)
	if err != nil {
		return "", fmt.Errorf("subscription: parsing topic {%s}: %w", topic, err)
	}

	channel := u.Query().Get("channel_id")
	if channel == "" {
		return "", ErrNoChannelInTopic
	}
	return channel, nil
}
