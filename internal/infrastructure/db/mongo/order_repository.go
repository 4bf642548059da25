package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tabify/order-sync/internal/core/domain"
	"github.com/tabify/order-sync/internal/core/ports"
)

const ordersCollection = "orders"

type OrderRepository struct {
	coll *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{coll: db.Collection(ordersCollection)}
}

type mongoOrderItem struct {
	Name     string  `bson:"name"`
	Quantity int     `bson:"quantity"`
	Price    float64 `bson:"price"`
}

type mongoOrder struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	UserID        string             `bson:"user_id"`
	UserName      string             `bson:"user_name"`
	Phone         string             `bson:"phone"`
	Items         []mongoOrderItem   `bson:"items"`
	TotalAmount   float64            `bson:"total_amount"`
	Status        string             `bson:"status"`
	PaymentStatus string             `bson:"payment_status"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

func (mo *mongoOrder) toDomain() *domain.Order {
	items := make([]domain.OrderItem, 0, len(mo.Items))
	for _, it := range mo.Items {
		items = append(items, domain.OrderItem{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}
	return &domain.Order{
		ID:            mo.ID.Hex(),
		UserID:        mo.UserID,
		UserName:      mo.UserName,
		Phone:         mo.Phone,
		Items:         items,
		TotalAmount:   mo.TotalAmount,
		Status:        domain.OrderStatus(mo.Status),
		PaymentStatus: domain.PaymentStatus(mo.PaymentStatus),
		CreatedAt:     mo.CreatedAt.UTC(),
		UpdatedAt:     mo.UpdatedAt.UTC(),
	}
}

func toDocument(o *domain.Order) mongoOrder {
	items := make([]mongoOrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, mongoOrderItem{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}
	return mongoOrder{
		UserID:        o.UserID,
		UserName:      o.UserName,
		Phone:         o.Phone,
		Items:         items,
		TotalAmount:   o.TotalAmount,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// Create inserts a new order document and returns it with the assigned id.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toDocument(o)
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrOrderNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mo mongoOrder
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&mo); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return mo.toDomain(), nil
}

// SetStatus applies the given lifecycle and payment values in one write and
// returns the resulting document. Empty values are left unchanged. Two
// racing calls on the same order are last-write-wins; each caller gets its
// own resulting document back.
func (r *OrderRepository) SetStatus(ctx context.Context, id string, status domain.OrderStatus, payment domain.PaymentStatus) (*domain.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrOrderNotFound
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if status != "" {
		set["status"] = string(status)
	}
	if payment != "" {
		set["payment_status"] = string(payment)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var mo mongoOrder
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&mo)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("update order: %w", err)
	}
	return mo.toDomain(), nil
}

// List returns a page of orders matching filter, newest first, plus the
// total match count.
func (r *OrderRepository) List(ctx context.Context, filter ports.ListOrdersFilter) ([]*domain.Order, int64, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.PaymentStatus != "" {
		query["payment_status"] = filter.PaymentStatus
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer cur.Close(ctx)

	var orders []*domain.Order
	for cur.Next(ctx) {
		var mo mongoOrder
		if err := cur.Decode(&mo); err != nil {
			return nil, 0, fmt.Errorf("decode order: %w", err)
		}
		orders = append(orders, mo.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	return orders, total, nil
}

type balanceDoc struct {
	UserID      string    `bson:"_id"`
	UserName    string    `bson:"user_name"`
	Phone       string    `bson:"phone"`
	TotalDue    float64   `bson:"total_due"`
	OrderCount  int64     `bson:"order_count"`
	LastOrderAt time.Time `bson:"last_order_at"`
}

type balanceFacet struct {
	Rows  []balanceDoc `bson:"rows"`
	Total []struct {
		Count int64 `bson:"count"`
	} `bson:"total"`
}

// UnpaidBalances groups unpaid orders by customer in a single aggregation:
// match unpaid → group by user → optional name filter → sort by most
// recent order → facet into one page of rows plus the customer count.
func (r *OrderRepository) UnpaidBalances(ctx context.Context, filter ports.BalancesFilter) ([]ports.BalanceRow, int64, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"payment_status": string(domain.PaymentUnpaid)}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":           "$user_id",
			"user_name":     bson.M{"$first": "$user_name"},
			"phone":         bson.M{"$first": "$phone"},
			"total_due":     bson.M{"$sum": "$total_amount"},
			"order_count":   bson.M{"$sum": 1},
			"last_order_at": bson.M{"$max": "$created_at"},
		}}},
	}

	if filter.Search != "" {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{
			"user_name": primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"},
		}}})
	}

	skip := (filter.Page - 1) * filter.Limit
	pipeline = append(pipeline,
		bson.D{{Key: "$sort", Value: bson.D{{Key: "last_order_at", Value: -1}}}},
		bson.D{{Key: "$facet", Value: bson.M{
			"rows": bson.A{
				bson.M{"$skip": skip},
				bson.M{"$limit": filter.Limit},
			},
			"total": bson.A{
				bson.M{"$count": "count"},
			},
		}}},
	)

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, fmt.Errorf("aggregate balances: %w", err)
	}
	defer cur.Close(ctx)

	var facets []balanceFacet
	if err := cur.All(ctx, &facets); err != nil {
		return nil, 0, fmt.Errorf("decode balances: %w", err)
	}
	if len(facets) == 0 {
		return nil, 0, nil
	}

	facet := facets[0]
	rows := make([]ports.BalanceRow, 0, len(facet.Rows))
	for _, doc := range facet.Rows {
		rows = append(rows, ports.BalanceRow{
			UserID:      doc.UserID,
			UserName:    doc.UserName,
			Phone:       doc.Phone,
			TotalDue:    doc.TotalDue,
			OrderCount:  doc.OrderCount,
			LastOrderAt: doc.LastOrderAt.UTC(),
		})
	}

	var total int64
	if len(facet.Total) > 0 {
		total = facet.Total[0].Count
	}

	return rows, total, nil
}

// MarkAllPaid flips every unpaid order of the user to paid in one bulk
// write. Lifecycle status is not touched.
func (r *OrderRepository) MarkAllPaid(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateMany(ctx,
		bson.M{"user_id": userID, "payment_status": string(domain.PaymentUnpaid)},
		bson.M{"$set": bson.M{
			"payment_status": string(domain.PaymentPaid),
			"updated_at":     time.Now().UTC(),
		}},
	)
	if err != nil {
		return 0, fmt.Errorf("mark all paid: %w", err)
	}
	return res.ModifiedCount, nil
}

// DeleteAll purges the whole collection. Maintenance use only.
func (r *OrderRepository) DeleteAll(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("delete orders: %w", err)
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the indexes backing the list and aggregation queries.
func (r *OrderRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "payment_status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
