package marcher

import (
	"fmt"
	"reflect"
)

// RendererTag marks that a renderer has been installed into the App.
type RendererTag struct {
	Name string
}

// ensureSingleRenderer panics when a renderer with another name is
// already installed.
func ensureSingleRenderer(app *App, name string) {
	if app == nil {
		panic("ensureSingleRenderer: app is nil")
	}
	t := reflect.TypeOf((*RendererTag)(nil)).Elem()
	res, ok := app.resources[t]
	if !ok {
		app.addResources(&RendererTag{Name: name})
		return
	}
	tag, ok := res.(*RendererTag)
	if !ok {
		panic("RendererTag resource present with unexpected type")
	}
	if tag.Name != name {
		app.Logger().Errorf("Multiple renderers installed: %s and %s", tag.Name, name)
		panic(fmt.Sprintf("Multiple renderers installed: %s and %s", tag.Name, name))
	}
}
