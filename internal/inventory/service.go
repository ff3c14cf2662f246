package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	kafkax "github.com/ariefcatur/go-decor-storefront.git/internal/kafka"
	"github.com/ariefcatur/go-decor-storefront.git/internal/orders"
	"github.com/ariefcatur/go-decor-storefront.git/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Reserver is satisfied by *orders.ReservationRepo.
type Reserver interface {
	AlreadyReserved(ctx context.Context, orderID string, itemCount int) (bool, error)
	ReserveAll(ctx context.Context, orderID string, items []orders.ItemQty) (bool, []orders.StockRejectedDetail, error)
}

// StatusUpdater is satisfied by *orders.Repo.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, orderID string, to orders.Status) error
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers ...kafkago.Header) error
}

type Service struct {
	Repo        Reserver
	Orders      StatusUpdater
	Redis       *redis.Client
	Producer    Publisher
	ServiceName string
	Log         *zap.Logger
}

// HandleOrderPlaced: dipasang sebagai handler consumer order.placed.
func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	// 1) decode envelope
	var env orders.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		s.Log.Warn("dropping undecodable message", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil // retry tidak akan menolong
	}
	if env.EventType != orders.EventOrderPlaced {
		return nil
	} // ignore

	// 2) dedup via Redis (pakai event_id)
	dkey := fmt.Sprintf(redisx.KeyDedup, "inventory", env.EventID)
	first, err := redisx.MarkOnce(ctx, s.Redis, dkey, redisx.TTLDedup)
	if err != nil {
		return err
	}
	if !first {
		s.Log.Debug("duplicate event", zap.String("event_id", env.EventID))
		return nil
	}
	if err := s.process(ctx, env); err != nil {
		// lepas tanda dedup supaya redelivery bisa memproses ulang
		_ = s.Redis.Del(context.WithoutCancel(ctx), dkey).Err()
		return err
	}
	return nil
}

func (s *Service) process(ctx context.Context, env orders.Envelope) error {
	p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
	if err != nil {
		s.Log.Warn("dropping bad payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}

	// Siapkan daftar item qty (abaikan price)
	items := make([]orders.ItemQty, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, orders.ItemQty{
			OrderItemID: it.OrderItemID,
			ProductID:   it.ProductID,
			VariantID:   it.VariantID,
			Qty:         it.Qty,
		})
	}

	// idempotent short-circuit: kalau sudah di-reserve sebelumnya
	reserved, err := s.Repo.AlreadyReserved(ctx, p.OrderID, len(items))
	if err != nil {
		return err
	}
	if !reserved {
		ok, details, err := s.Repo.ReserveAll(ctx, p.OrderID, items)
		if err != nil {
			return err
		}
		if !ok {
			// gagal stok → status FAILED + publish rejected (+details)
			if err := s.setStatus(ctx, p.OrderID, orders.StatusFailed); err != nil {
				return err
			}
			s.Log.Info("stock rejected", zap.String("order_id", p.OrderID), zap.Int("lines", len(details)))
			return s.publish(ctx, orders.TopicStockRejected, orders.EventStockRejected, p.OrderID, env.TraceID,
				orders.StockRejectedPayload{OrderID: p.OrderID, Reason: "OUT_OF_STOCK", Details: details})
		}
	}

	if err := s.setStatus(ctx, p.OrderID, orders.StatusStockReserved); err != nil {
		return err
	}
	s.Log.Info("stock reserved", zap.String("order_id", p.OrderID), zap.Int("lines", len(items)))
	return s.publish(ctx, orders.TopicStockReserved, orders.EventStockReserved, p.OrderID, env.TraceID,
		orders.StockReservedPayload{OrderID: p.OrderID, Items: items})
}

func (s *Service) setStatus(ctx context.Context, orderID string, to orders.Status) error {
	err := s.Orders.UpdateStatus(ctx, orderID, to)
	if errors.Is(err, orders.ErrInvalidTransition) {
		// order sudah bergerak (mis. dibatalkan admin); event tetap dipublish
		s.Log.Warn("status not moved", zap.String("order_id", orderID), zap.Error(err))
		err = nil
	}
	if err != nil {
		return err
	}
	// invalidasi cache status di API
	_ = s.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderStatus, orderID)).Err()
	return nil
}

func (s *Service) publish(ctx context.Context, topic, eventType, orderID, trace string, payload any) error {
	env, err := orders.NewEnvelope(eventType, s.ServiceName, orderID, trace, payload)
	if err != nil {
		return err
	}
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return s.Producer.Publish(ctx, topic, orders.PartitionKey(orderID), b, kafkax.EventHeaders(eventType, env.EventVersion)...)
}
