package order

import (
	"github.com/teslashibe/go-drivethru/pkg/cart"
	"github.com/teslashibe/go-drivethru/pkg/menu"
)

func sampleSnapshot() cart.Snapshot {
	c := cart.New()
	c.Add(menu.Item{Name: "Cheeseburger", Price: 349, Image: "/static/Menu/Cheeseburger.png"}, 1)
	c.Add(menu.Item{Name: "Fries", Price: 319, Image: "/static/Menu/Fries.png"}, 1)
	return c.Snapshot()
}
