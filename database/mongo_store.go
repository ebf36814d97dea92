package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vittermi/FastFood/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ordersCollection        = "orders"
	statusChangesCollection = "order_status_changes"
	dishesCollection        = "dishes"
	templatesCollection     = "dish_templates"
	restaurantsCollection   = "restaurants"
	preferencesCollection   = "preferences"
)

// MongoStore is the document backend. Order lines are embedded in the order
// document. Without a replica set there are no multi-document transactions,
// so the change log entry is written right after the order write succeeds.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{client: client, db: client.Database(database)}
}

// EnsureIndexes creates the indexes the order queries rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(ordersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "restaurant", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "customer", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("order indexes: %w", err)
	}
	_, err = s.db.Collection(statusChangesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "orderId", Value: 1}, {Key: "changedAt", Value: 1}}},
		{Keys: bson.D{{Key: "publishedAt", Value: 1}, {Key: "changedAt", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("status change indexes: %w", err)
	}
	_, err = s.db.Collection(preferencesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "customer", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("preference indexes: %w", err)
	}
	return nil
}

type orderLineDocument struct {
	Dish         string               `bson:"dish"`
	Quantity     int                  `bson:"quantity"`
	PriceAtOrder primitive.Decimal128 `bson:"priceAtOrder"`
}

type orderDocument struct {
	ID          string               `bson:"_id"`
	Restaurant  string               `bson:"restaurant"`
	Customer    string               `bson:"customer"`
	Items       []orderLineDocument  `bson:"items"`
	TotalAmount primitive.Decimal128 `bson:"totalAmount"`
	Status      string               `bson:"status"`
	CreatedAt   time.Time            `bson:"createdAt"`
}

type statusChangeDocument struct {
	ID          string     `bson:"_id"`
	OrderID     string     `bson:"orderId"`
	Restaurant  string     `bson:"restaurant"`
	Customer    string     `bson:"customer"`
	From        string     `bson:"from"`
	To          string     `bson:"to"`
	Actor       string     `bson:"actor"`
	ChangedAt   time.Time  `bson:"changedAt"`
	PublishedAt *time.Time `bson:"publishedAt"`
}

type dishDocument struct {
	ID          string               `bson:"_id"`
	Restaurant  string               `bson:"restaurant"`
	BaseDish    string               `bson:"baseDish,omitempty"`
	Name        string               `bson:"name"`
	Type        string               `bson:"type"`
	Category    string               `bson:"category"`
	Ingredients []string             `bson:"ingredients"`
	Allergens   []string             `bson:"allergens"`
	Tags        []string             `bson:"tags"`
	Photo       string               `bson:"photo"`
	Price       primitive.Decimal128 `bson:"price"`
	IsAvailable bool                 `bson:"isAvailable"`
}

type templateDocument struct {
	ID          string   `bson:"_id"`
	Name        string   `bson:"name"`
	Type        string   `bson:"type"`
	Ingredients []string `bson:"ingredients"`
	Measures    []string `bson:"measures"`
	Allergens   []string `bson:"allergens"`
	Tags        []string `bson:"tags"`
	Photo       string   `bson:"photo"`
}

type restaurantDocument struct {
	ID      string `bson:"_id"`
	Owner   string `bson:"owner"`
	Name    string `bson:"name"`
	Address string `bson:"address"`
	Phone   string `bson:"phone"`
	VAT     string `bson:"vat"`
}

type preferenceDocument struct {
	Customer    string   `bson:"customer"`
	Allergens   []string `bson:"allergens"`
	PaymentType string   `bson:"paymentType"`
	CardDetails struct {
		Token      string `bson:"token,omitempty"`
		CardHolder string `bson:"cardHolder,omitempty"`
		CardNumber string `bson:"cardNumber,omitempty"`
		ExpiryDate string `bson:"expiryDate,omitempty"`
	} `bson:"cardDetails"`
	Consents struct {
		TOS     bool `bson:"tos"`
		Privacy bool `bson:"privacy"`
		Offers  bool `bson:"offers"`
	} `bson:"consents"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(v.String())
}

func toOrderDocument(order *models.Order) (orderDocument, error) {
	total, err := toDecimal128(order.TotalAmount)
	if err != nil {
		return orderDocument{}, fmt.Errorf("total amount: %w", err)
	}
	doc := orderDocument{
		ID:          order.ID,
		Restaurant:  order.RestaurantID,
		Customer:    order.CustomerID,
		Items:       make([]orderLineDocument, 0, len(order.Items)),
		TotalAmount: total,
		Status:      string(order.Status),
		CreatedAt:   order.CreatedAt,
	}
	for _, line := range order.Items {
		price, err := toDecimal128(line.PriceAtOrder)
		if err != nil {
			return orderDocument{}, fmt.Errorf("price of dish %s: %w", line.DishID, err)
		}
		doc.Items = append(doc.Items, orderLineDocument{
			Dish:         line.DishID,
			Quantity:     line.Quantity,
			PriceAtOrder: price,
		})
	}
	return doc, nil
}

func (doc orderDocument) toModel() (models.Order, error) {
	total, err := fromDecimal128(doc.TotalAmount)
	if err != nil {
		return models.Order{}, fmt.Errorf("order %s total: %w", doc.ID, err)
	}
	order := models.Order{
		ID:           doc.ID,
		RestaurantID: doc.Restaurant,
		CustomerID:   doc.Customer,
		Items:        make([]models.OrderLine, 0, len(doc.Items)),
		TotalAmount:  total,
		Status:       models.OrderStatus(doc.Status),
		CreatedAt:    doc.CreatedAt,
	}
	for _, line := range doc.Items {
		price, err := fromDecimal128(line.PriceAtOrder)
		if err != nil {
			return models.Order{}, fmt.Errorf("order %s line price: %w", doc.ID, err)
		}
		order.Items = append(order.Items, models.OrderLine{
			OrderID:      doc.ID,
			DishID:       line.Dish,
			Quantity:     line.Quantity,
			PriceAtOrder: price,
		})
	}
	return order, nil
}

func toStatusChangeDocument(change *models.OrderStatusChange) statusChangeDocument {
	return statusChangeDocument{
		ID:          change.ID,
		OrderID:     change.OrderID,
		Restaurant:  change.RestaurantID,
		Customer:    change.CustomerID,
		From:        string(change.FromStatus),
		To:          string(change.ToStatus),
		Actor:       change.ActorID,
		ChangedAt:   change.ChangedAt,
		PublishedAt: change.PublishedAt,
	}
}

func (doc statusChangeDocument) toModel() models.OrderStatusChange {
	return models.OrderStatusChange{
		ID:           doc.ID,
		OrderID:      doc.OrderID,
		RestaurantID: doc.Restaurant,
		CustomerID:   doc.Customer,
		FromStatus:   models.OrderStatus(doc.From),
		ToStatus:     models.OrderStatus(doc.To),
		ActorID:      doc.Actor,
		ChangedAt:    doc.ChangedAt,
		PublishedAt:  doc.PublishedAt,
	}
}

func (s *MongoStore) Create(ctx context.Context, order *models.Order, change *models.OrderStatusChange) error {
	doc, err := toOrderDocument(order)
	if err != nil {
		return err
	}
	if _, err := s.db.Collection(ordersCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	if _, err := s.db.Collection(statusChangesCollection).InsertOne(ctx, toStatusChangeDocument(change)); err != nil {
		return fmt.Errorf("insert status change: %w", err)
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var doc orderDocument
	if err := s.db.Collection(ordersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, translateMongo(err)
	}
	order, err := doc.toModel()
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *MongoStore) findOrders(ctx context.Context, filter bson.M, sort int) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: sort}})
	cursor, err := s.db.Collection(ordersCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	orders := make([]models.Order, 0, len(docs))
	for _, doc := range docs {
		order, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (s *MongoStore) FindByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	return s.findOrders(ctx, bson.M{"customer": customerID}, -1)
}

func (s *MongoStore) FindByRestaurant(ctx context.Context, restaurantID string) ([]models.Order, error) {
	return s.findOrders(ctx, bson.M{"restaurant": restaurantID}, -1)
}

func workloadFilter(restaurantID string, before time.Time) bson.M {
	statuses := make([]string, 0, 2)
	for _, status := range workloadStatuses() {
		statuses = append(statuses, string(status))
	}
	return bson.M{
		"restaurant": restaurantID,
		"status":     bson.M{"$in": statuses},
		"createdAt":  bson.M{"$lt": before},
	}
}

func (s *MongoStore) FindWorkload(ctx context.Context, restaurantID string, before time.Time) ([]models.Order, error) {
	return s.findOrders(ctx, workloadFilter(restaurantID, before), 1)
}

func (s *MongoStore) CompareAndSetStatus(ctx context.Context, change *models.OrderStatusChange) error {
	orders := s.db.Collection(ordersCollection)
	filter := bson.M{"_id": change.OrderID, "status": string(change.FromStatus)}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "status", Value: string(change.ToStatus)}}}}

	res, err := orders.UpdateOne(ctx, filter, update, options.Update().SetUpsert(false))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if res.MatchedCount == 0 {
		count, err := orders.CountDocuments(ctx, bson.M{"_id": change.OrderID})
		if err != nil {
			return fmt.Errorf("check order: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrStatusConflict
	}
	if _, err := s.db.Collection(statusChangesCollection).InsertOne(ctx, toStatusChangeDocument(change)); err != nil {
		return fmt.Errorf("insert status change: %w", err)
	}
	return nil
}

func (s *MongoStore) findChanges(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.OrderStatusChange, error) {
	cursor, err := s.db.Collection(statusChangesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []statusChangeDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	changes := make([]models.OrderStatusChange, 0, len(docs))
	for _, doc := range docs {
		changes = append(changes, doc.toModel())
	}
	return changes, nil
}

func (s *MongoStore) StatusHistory(ctx context.Context, orderID string) ([]models.OrderStatusChange, error) {
	opts := options.Find().SetSort(bson.D{{Key: "changedAt", Value: 1}})
	return s.findChanges(ctx, bson.M{"orderId": orderID}, opts)
}

func (s *MongoStore) PendingStatusChanges(ctx context.Context, limit int) ([]models.OrderStatusChange, error) {
	opts := options.Find().SetSort(bson.D{{Key: "changedAt", Value: 1}}).SetLimit(int64(limit))
	return s.findChanges(ctx, bson.M{"publishedAt": nil}, opts)
}

func (s *MongoStore) MarkStatusChangePublished(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.Collection(statusChangesCollection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.D{{Key: "$set", Value: bson.D{{Key: "publishedAt", Value: at}}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) FindDish(ctx context.Context, id string) (*models.Dish, error) {
	var doc dishDocument
	if err := s.db.Collection(dishesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, translateMongo(err)
	}
	price, err := fromDecimal128(doc.Price)
	if err != nil {
		return nil, fmt.Errorf("dish %s price: %w", id, err)
	}
	return &models.Dish{
		ID:           doc.ID,
		RestaurantID: doc.Restaurant,
		BaseDishID:   doc.BaseDish,
		Name:         doc.Name,
		Type:         doc.Type,
		Category:     doc.Category,
		Ingredients:  doc.Ingredients,
		Allergens:    doc.Allergens,
		Tags:         doc.Tags,
		Photo:        doc.Photo,
		Price:        price,
		IsAvailable:  doc.IsAvailable,
	}, nil
}

func (s *MongoStore) FindTemplate(ctx context.Context, id string) (*models.DishTemplate, error) {
	var doc templateDocument
	if err := s.db.Collection(templatesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, translateMongo(err)
	}
	return &models.DishTemplate{
		ID:          doc.ID,
		Name:        doc.Name,
		Type:        doc.Type,
		Ingredients: doc.Ingredients,
		Measures:    doc.Measures,
		Allergens:   doc.Allergens,
		Tags:        doc.Tags,
		Photo:       doc.Photo,
	}, nil
}

func (s *MongoStore) findRestaurant(ctx context.Context, filter bson.M) (*models.Restaurant, error) {
	var doc restaurantDocument
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	if err := s.db.Collection(restaurantsCollection).FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		return nil, translateMongo(err)
	}
	return &models.Restaurant{
		ID:      doc.ID,
		OwnerID: doc.Owner,
		Name:    doc.Name,
		Address: doc.Address,
		Phone:   doc.Phone,
		VAT:     doc.VAT,
	}, nil
}

func (s *MongoStore) FindRestaurant(ctx context.Context, id string) (*models.Restaurant, error) {
	return s.findRestaurant(ctx, bson.M{"_id": id})
}

func (s *MongoStore) FindByOwner(ctx context.Context, ownerID string) (*models.Restaurant, error) {
	return s.findRestaurant(ctx, bson.M{"owner": ownerID})
}

func (s *MongoStore) FindPreference(ctx context.Context, customerID string) (*models.Preference, error) {
	var doc preferenceDocument
	if err := s.db.Collection(preferencesCollection).FindOne(ctx, bson.M{"customer": customerID}).Decode(&doc); err != nil {
		return nil, translateMongo(err)
	}
	return &models.Preference{
		CustomerID:     doc.Customer,
		Allergens:      doc.Allergens,
		PaymentType:    models.PaymentType(doc.PaymentType),
		CardToken:      doc.CardDetails.Token,
		CardHolder:     doc.CardDetails.CardHolder,
		CardNumber:     doc.CardDetails.CardNumber,
		CardExpiry:     doc.CardDetails.ExpiryDate,
		ConsentTOS:     doc.Consents.TOS,
		ConsentPrivacy: doc.Consents.Privacy,
		ConsentOffers:  doc.Consents.Offers,
	}, nil
}

func (s *MongoStore) SavePreference(ctx context.Context, pref *models.Preference) error {
	var doc preferenceDocument
	doc.Customer = pref.CustomerID
	doc.Allergens = pref.Allergens
	doc.PaymentType = string(pref.PaymentType)
	doc.CardDetails.Token = pref.CardToken
	doc.CardDetails.CardHolder = pref.CardHolder
	doc.CardDetails.CardNumber = pref.CardNumber
	doc.CardDetails.ExpiryDate = pref.CardExpiry
	doc.Consents.TOS = pref.ConsentTOS
	doc.Consents.Privacy = pref.ConsentPrivacy
	doc.Consents.Offers = pref.ConsentOffers

	_, err := s.db.Collection(preferencesCollection).ReplaceOne(ctx,
		bson.M{"customer": pref.CustomerID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func translateMongo(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

var _ Store = (*MongoStore)(nil)
