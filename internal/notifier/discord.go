package notifier

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/slimtribe/slimtribe-api/internal/models"
)

type Notifier interface {
	NotifyChallengeCompleted(user models.User, challenge models.Challenge) error
	NotifyAchievement(user models.User, achievement models.Achievement) error
}

type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordNotifier(session *discordgo.Session, channelID string) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
	}
}

func (n *DiscordNotifier) NotifyChallengeCompleted(user models.User, challenge models.Challenge) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	message := fmt.Sprintf("🏆 **Challenge Completed**\n**User:** %s\n**Challenge:** %s\n**Reward:** %d points",
		user.Username,
		challenge.Name,
		challenge.RewardPoints,
	)

	_, err := n.session.ChannelMessageSend(n.channelID, message)
	if err != nil {
		log.Printf("Failed to send discord message: %v", err)
		return err
	}

	return nil
}

func (n *DiscordNotifier) NotifyAchievement(user models.User, achievement models.Achievement) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	message := fmt.Sprintf("🎖️ **Achievement Unlocked**\n**User:** %s\n**Achievement:** %s (%d points)",
		user.Username,
		achievement.Name,
		achievement.Points,
	)

	_, err := n.session.ChannelMessageSend(n.channelID, message)
	if err != nil {
		log.Printf("Failed to send discord message: %v", err)
		return err
	}

	return nil
}
