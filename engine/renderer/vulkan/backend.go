package vulkan

import (
	"runtime"
	"sync"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/core"
	"github.com/spaghettifunk/helloquad/engine/renderer"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
)

const (
	engineName      = "helloquad"
	validationLayer = "VK_LAYER_KHRONOS_validation"
	surfaceExt      = "VK_KHR_surface"
)

func init() {
	renderer.Register(metadata.GraphicsBackendVulkan, func(options metadata.GraphicsDeviceOptions, swapchain *metadata.SwapchainDescription) (renderer.Device, error) {
		gd, err := NewGraphicsDevice(options, swapchain)
		if err != nil {
			return nil, err
		}
		return gd, nil
	})
	renderer.RegisterProbe(metadata.GraphicsBackendVulkan, Probe)
}

var loader struct {
	mu       sync.Mutex
	procAddr unsafe.Pointer
}

// initLoader points the bindings at the host's vkGetInstanceProcAddr. The
// function table is loaded once per loader.
func initLoader(procAddr unsafe.Pointer) error {
	if procAddr == nil {
		return errors.Wrap(core.ErrNoDriver, "vulkan loader not provided by host")
	}
	loader.mu.Lock()
	defer loader.mu.Unlock()
	if loader.procAddr == procAddr {
		return nil
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize vk")
	}
	loader.procAddr = procAddr
	return nil
}

// Probe checks that an instance can be created and that at least one
// physical device has a graphics queue. Nothing is kept alive.
func Probe(options metadata.GraphicsDeviceOptions) error {
	options.Debug = false
	context, err := createInstance(options)
	if err != nil {
		return err
	}
	defer destroyInstance(context)

	devices, err := enumeratePhysicalDevices(context.Instance)
	if err != nil {
		return err
	}
	for _, pd := range devices {
		if _, ok := findGraphicsQueueFamily(pd); ok {
			return nil
		}
	}
	return errors.New("no physical device with a graphics queue")
}

func enumerateInstanceExtensions() ([]string, error) {
	var count uint32
	if err := checkResult(vk.EnumerateInstanceExtensionProperties("", &count, nil), "vkEnumerateInstanceExtensionProperties"); err != nil {
		return nil, err
	}
	props := make([]vk.ExtensionProperties, count)
	if err := checkResult(vk.EnumerateInstanceExtensionProperties("", &count, props), "vkEnumerateInstanceExtensionProperties"); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, p := range props[:count] {
		p.Deref()
		names = append(names, vk.ToString(p.ExtensionName[:]))
	}
	return names, nil
}

func enumerateInstanceLayers() ([]string, error) {
	var count uint32
	if err := checkResult(vk.EnumerateInstanceLayerProperties(&count, nil), "vkEnumerateInstanceLayerProperties"); err != nil {
		return nil, err
	}
	props := make([]vk.LayerProperties, count)
	if err := checkResult(vk.EnumerateInstanceLayerProperties(&count, props), "vkEnumerateInstanceLayerProperties"); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, p := range props[:count] {
		p.Deref()
		names = append(names, vk.ToString(p.LayerName[:]))
	}
	return names, nil
}

func createInstance(options metadata.GraphicsDeviceOptions) (*VulkanContext, error) {
	if err := initLoader(options.VulkanProcAddr); err != nil {
		return nil, err
	}

	appName := options.ApplicationName
	if appName == "" {
		appName = engineName
	}
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		EngineVersion:      uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString(engineName),
	}

	available, err := enumerateInstanceExtensions()
	if err != nil {
		return nil, err
	}

	requiredExtensions := appendUnique([]string{surfaceExt}, options.InstanceExtensions...)
	for _, ext := range requiredExtensions {
		if !hasName(available, ext) {
			return nil, errors.Errorf("required instance extension %s is missing", ext)
		}
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	if runtime.GOOS == "darwin" && hasName(available, "VK_KHR_portability_enumeration") {
		requiredExtensions = appendUnique(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		createInfo.Flags |= 1
	}

	debugReport := false
	var layers []string
	if options.Debug {
		if hasName(available, vk.ExtDebugReportExtensionName) {
			requiredExtensions = appendUnique(requiredExtensions, vk.ExtDebugReportExtensionName)
			debugReport = true
		}
		availableLayers, err := enumerateInstanceLayers()
		if err != nil {
			return nil, err
		}
		if hasName(availableLayers, validationLayer) {
			layers = append(layers, validationLayer)
		} else {
			core.LogWarn("validation layer %s is not available, continuing without it", validationLayer)
		}
	}

	core.LogDebug("Required extensions: %v", requiredExtensions)
	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)

	context := &VulkanContext{Locks: NewVulkanLockPool()}
	if res := vk.CreateInstance(&createInfo, context.Allocator, &context.Instance); res != vk.Success {
		return nil, errors.Errorf("failed in creating the Vulkan Instance with error `%s`", VulkanResultString(res, true))
	}
	if err := vk.InitInstance(context.Instance); err != nil {
		vk.DestroyInstance(context.Instance, context.Allocator)
		return nil, errors.Wrap(err, "loading instance functions")
	}
	core.LogDebug("Vulkan Instance created.")

	if debugReport {
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if err := vk.Error(vk.CreateDebugReportCallback(context.Instance, &debugCreateInfo, context.Allocator, &dbg)); err != nil {
			core.LogWarn("vk.CreateDebugReportCallback failed with %s", err)
		} else {
			context.debugMessenger = dbg
			core.LogDebug("Vulkan debugger created.")
		}
	}
	return context, nil
}

func destroyInstance(context *VulkanContext) {
	if context.debugMessenger != nil {
		vk.DestroyDebugReportCallback(context.Instance, context.debugMessenger, context.Allocator)
		context.debugMessenger = nil
	}
	if context.Instance != nil {
		vk.DestroyInstance(context.Instance, context.Allocator)
		context.Instance = nil
	}
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogDebug("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
