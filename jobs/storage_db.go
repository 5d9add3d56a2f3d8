package jobs

import "wmsbridge/store"

// DBStorage adapts the database to the sequencer's Storage interface.
type DBStorage struct {
	DB *store.DB
}

func (s DBStorage) GetStockByID(id int64) (StockInfo, error) {
	d, err := s.DB.GetStockDetail(id)
	if err != nil {
		return StockInfo{}, err
	}
	return StockInfo{
		Name:         d.Name,
		Quantity:     d.Quantity,
		PinID:        d.PinID,
		CategoryName: d.CategoryName,
	}, nil
}

func (s DBStorage) GetPinByID(id int64) (PinInfo, error) {
	p, err := s.DB.GetPin(id)
	if err != nil {
		return PinInfo{}, err
	}
	return PinInfo{Name: p.Name, Coords: p.Coords}, nil
}

func (s DBStorage) SetStockQuantity(id int64, quantity int) error {
	return s.DB.SetStockQuantity(id, quantity)
}

func (s DBStorage) AppendLog(e LogEntry) error {
	return s.DB.AppendLog(&store.Log{
		RobotName:    e.RobotName,
		PinName:      e.PinName,
		CategoryName: e.CategoryName,
		StockName:    e.StockName,
		StockID:      e.StockID,
		Quantity:     e.Quantity,
		Action:       e.Action,
	})
}
