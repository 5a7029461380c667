package sqlite

import (
	"context"
	"fmt"
)

// SubscribeChat adds the chat to the broadcast list.
// It reports false when the chat was already subscribed.
func (r *Repository) SubscribeChat(ctx context.Context, chatID int64) (bool, error) {
	const opn = "repository.sqlite.SubscribeChat"
	res, err := r.db.ExecContext(ctx, "INSERT INTO subscriptions (chat_id) VALUES (?) ON CONFLICT (chat_id) DO NOTHING", chatID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", opn, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: failed to get affected rows: %w", opn, err)
	}

	return affected > 0, nil
}

// UnsubscribeChat removes the chat from the broadcast list.
// It reports false when the chat was not subscribed.
func (r *Repository) UnsubscribeChat(ctx context.Context, chatID int64) (bool, error) {
	const opn = "repository.sqlite.UnsubscribeChat"
	res, err := r.db.ExecContext(ctx, "DELETE FROM subscriptions WHERE chat_id = ?", chatID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", opn, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: failed to get affected rows: %w", opn, err)
	}

	return affected > 0, nil
}

// SubscribedChats returns the ids of all subscribed chats in ascending order.
func (r *Repository) SubscribedChats(ctx context.Context) ([]int64, error) {
	const opn = "repository.sqlite.SubscribedChats"
	rows, err := r.db.QueryContext(ctx, "SELECT chat_id FROM subscriptions ORDER BY chat_id")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	defer rows.Close()

	var chatIDs []int64
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: failed to scan chat_id: %w", opn, err)
		}
		chatIDs = append(chatIDs, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", opn, err)
	}

	return chatIDs, nil
}
